package filters

import (
	"bytes"
	"compress/flate"
	"compress/lzw"
	"context"
	"testing"

	"github.com/edocket/bindery/pdf"
)

func TestFlateDecodeZlib(t *testing.T) {
	data := FlateEncode([]byte("hello world"))

	dec := NewFlateDecoder()
	out, err := dec.Decode(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(out) != "hello world" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFlateDecodeRawDeflate(t *testing.T) {
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.BestSpeed)
	w.Write([]byte("bare deflate"))
	w.Close()

	dec := NewFlateDecoder()
	out, err := dec.Decode(context.Background(), buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(out) != "bare deflate" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFlateDecodeWithPredictor(t *testing.T) {
	// PNG predictor row: filter byte 1 (Sub), then row bytes.
	data := FlateEncode([]byte{1, 10, 12, 20})

	params := pdf.NewDict()
	params.Set("Predictor", pdf.Integer(12))
	params.Set("Colors", pdf.Integer(1))
	params.Set("BitsPerComponent", pdf.Integer(8))
	params.Set("Columns", pdf.Integer(3))

	dec := NewFlateDecoder()
	out, err := dec.Decode(context.Background(), data, params)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	want := []byte{10, 22, 42}
	if !bytes.Equal(out, want) {
		t.Fatalf("predictor output mismatch: got %v want %v", out, want)
	}
}

func TestPredictorUpRows(t *testing.T) {
	// Two rows with filter Up; second row accumulates onto the first.
	raw := []byte{
		2, 1, 2, 3,
		2, 1, 1, 1,
	}
	params := pdf.NewDict()
	params.Set("Predictor", pdf.Integer(12))
	params.Set("Columns", pdf.Integer(3))

	out, err := applyPredictor(raw, params)
	if err != nil {
		t.Fatalf("predictor error: %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestPredictorTIFF(t *testing.T) {
	raw := []byte{10, 5, 5, 7, 3, 0}
	params := pdf.NewDict()
	params.Set("Predictor", pdf.Integer(2))
	params.Set("Columns", pdf.Integer(3))

	out, err := applyPredictor(raw, params)
	if err != nil {
		t.Fatalf("predictor error: %v", err)
	}
	want := []byte{10, 15, 20, 7, 10, 10}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestLZWDecode(t *testing.T) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	input := []byte("hello hello hello")
	if _, err := w.Write(input); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	dec := NewLZWDecoder()
	out, err := dec.Decode(context.Background(), buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRunLengthDecode(t *testing.T) {
	// literal run of 3 bytes, repeat 'A' twice, EOD
	data := []byte{2, 'h', 'i', '!', 255, 'A', 128}
	dec := NewRunLengthDecoder()
	out, err := dec.Decode(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(out) != "hi!AA" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestASCIIHexDecode(t *testing.T) {
	dec := NewASCIIHexDecoder()
	out, err := dec.Decode(context.Background(), []byte("48 65 6C 6C 6F 7>"), nil)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(out) != "Hellop" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestASCII85Decode(t *testing.T) {
	dec := NewASCII85Decoder()
	out, err := dec.Decode(context.Background(), []byte("<~87cURD_*#4DfTZ)+T~>"), nil)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if string(out) != "Hello, World!" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPipelineChain(t *testing.T) {
	stage1 := FlateEncode([]byte("chained"))
	var hexed bytes.Buffer
	for _, b := range stage1 {
		hexed.WriteString(hexByte(b))
	}
	hexed.WriteByte('>')

	p := NewDefaultPipeline(Limits{})
	out, err := p.Decode(context.Background(), hexed.Bytes(),
		[]string{"ASCIIHexDecode", "FlateDecode"}, nil)
	if err != nil {
		t.Fatalf("pipeline decode: %v", err)
	}
	if string(out) != "chained" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPipelineUnknownFilter(t *testing.T) {
	p := NewDefaultPipeline(Limits{})
	_, err := p.Decode(context.Background(), []byte("x"), []string{"JPXDecode"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestPipelineSizeLimit(t *testing.T) {
	data := FlateEncode(bytes.Repeat([]byte("a"), 4096))
	p := NewDefaultPipeline(Limits{MaxDecompressedSize: 1024})
	_, err := p.Decode(context.Background(), data, []string{"FlateDecode"}, nil)
	if err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestExtractChain(t *testing.T) {
	d := pdf.NewDict()
	d.Set("Filter", pdf.Array{pdf.Name("ASCIIHexDecode"), pdf.Name("FlateDecode")})
	parms := pdf.NewDict()
	parms.Set("Predictor", pdf.Integer(12))
	d.Set("DecodeParms", pdf.Array{pdf.Null{}, parms})

	names, params := ExtractChain(d)
	if len(names) != 2 || names[0] != "ASCIIHexDecode" || names[1] != "FlateDecode" {
		t.Fatalf("names = %v", names)
	}
	if params[0] != nil {
		t.Errorf("params[0] should be nil")
	}
	if params[1] == nil {
		t.Fatal("params[1] missing")
	}
	if v, _ := params[1].Int("Predictor"); v != 12 {
		t.Errorf("predictor = %d, want 12", v)
	}

	single := pdf.NewDict()
	single.Set("Filter", pdf.Name("FlateDecode"))
	names, _ = ExtractChain(single)
	if len(names) != 1 || names[0] != "FlateDecode" {
		t.Fatalf("single filter names = %v", names)
	}
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0xF]})
}
