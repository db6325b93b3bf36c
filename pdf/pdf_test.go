package pdf_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/scanner"
)

func parse(t *testing.T, src string) pdf.Object {
	t.Helper()
	s := scanner.New(strings.NewReader(src), scanner.Config{})
	obj, err := pdf.ParseObject(pdf.NewTokens(s))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return obj
}

func TestSerializeDictSortedKeys(t *testing.T) {
	d := pdf.NewDict()
	d.Set("Type", pdf.Name("Page"))
	d.Set("Count", pdf.Integer(3))
	d.Set("Author", pdf.String{Data: []byte("Ann")})

	got := string(pdf.Serialize(d))
	want := "<</Author (Ann)/Count 3/Type /Page>>"
	if got != want {
		t.Errorf("serialize dict = %q, want %q", got, want)
	}
}

func TestSerializeNested(t *testing.T) {
	inner := pdf.NewDict()
	inner.Set("W", pdf.Real(595.28))
	arr := pdf.Array{pdf.Integer(0), pdf.Boolean(true), pdf.Null{}, inner, pdf.Ref{Num: 7, Gen: 0}}

	got := string(pdf.Serialize(arr))
	want := "[0 true null <</W 595.28>> 7 0 R]"
	if got != want {
		t.Errorf("serialize array = %q, want %q", got, want)
	}
}

func TestSerializeStringEscapes(t *testing.T) {
	got := string(pdf.Serialize(pdf.String{Data: []byte("a(b)\\c\nd")}))
	want := `(a\(b\)\\c\nd)`
	if got != want {
		t.Errorf("literal string = %q, want %q", got, want)
	}

	got = string(pdf.Serialize(pdf.String{Data: []byte{0xDE, 0xAD}, Hex: true}))
	if got != "<DEAD>" {
		t.Errorf("hex string = %q, want <DEAD>", got)
	}
}

func TestSerializeNameEscapes(t *testing.T) {
	got := string(pdf.Serialize(pdf.Name("A B#c")))
	want := "/A#20B#23c"
	if got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
}

func TestSerializeStream(t *testing.T) {
	d := pdf.NewDict()
	d.Set("Length", pdf.Integer(5))
	st := pdf.NewStream(d, []byte("BT ET"))
	got := string(pdf.Serialize(st))
	want := "<</Length 5>>stream\nBT ET\nendstream"
	if got != want {
		t.Errorf("stream = %q, want %q", got, want)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12, "12"},
		{-3, "-3"},
		{1.5, "1.5"},
		{595.28, "595.28"},
		{0.70710678, "0.7071"},
		{1e-7, "0"},
	}
	for _, tt := range tests {
		if got := pdf.FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDict(t *testing.T) {
	obj := parse(t, "<< /Type /Catalog /Pages 2 0 R /Names [(a) (b)] >>")
	d, ok := obj.(*pdf.Dict)
	if !ok {
		t.Fatalf("got %T, want *Dict", obj)
	}
	if name, _ := d.NameVal("Type"); name != "Catalog" {
		t.Errorf("Type = %q, want Catalog", name)
	}
	ref, ok := d.RefVal("Pages")
	if !ok || ref.Num != 2 || ref.Gen != 0 {
		t.Errorf("Pages = %+v, want 2 0 R", ref)
	}
	names, _ := d.ArrayVal("Names")
	if len(names) != 2 {
		t.Errorf("Names len = %d, want 2", len(names))
	}
}

func TestParseRefLookahead(t *testing.T) {
	// Two integers not followed by R stay separate integers.
	obj := parse(t, "[1 2 3]")
	arr := obj.(pdf.Array)
	if len(arr) != 3 {
		t.Fatalf("array len = %d, want 3", len(arr))
	}
	for i, item := range arr {
		n, ok := item.(pdf.Integer)
		if !ok || int(n) != i+1 {
			t.Errorf("arr[%d] = %v, want %d", i, item, i+1)
		}
	}

	obj = parse(t, "[1 0 R 2]")
	arr = obj.(pdf.Array)
	if len(arr) != 2 {
		t.Fatalf("array len = %d, want 2", len(arr))
	}
	if ref, ok := arr[0].(pdf.Ref); !ok || ref.Num != 1 {
		t.Errorf("arr[0] = %v, want 1 0 R", arr[0])
	}
}

func TestParseRejectsBadDictKey(t *testing.T) {
	s := scanner.New(strings.NewReader("<< 1 /V >>"), scanner.Config{})
	if _, err := pdf.ParseObject(pdf.NewTokens(s)); err == nil {
		t.Fatal("expected error for non-name dictionary key")
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	src := "<< /K [1 1.25 (s) <BEEF> /N true null 4 0 R] /D << /X 9 >> >>"
	first := pdf.Serialize(parse(t, src))
	second := pdf.Serialize(parse(t, string(first)))
	if !bytes.Equal(first, second) {
		t.Errorf("round trip unstable:\n first: %s\nsecond: %s", first, second)
	}
}

func TestDictTypedGetters(t *testing.T) {
	d := pdf.NewDict()
	d.Set("MediaBox", pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Real(612), pdf.Real(792)})
	r, ok := d.RectVal("MediaBox")
	if !ok {
		t.Fatal("RectVal failed")
	}
	if r.Width() != 612 || r.Height() != 792 {
		t.Errorf("rect = %+v", r)
	}
	if _, ok := d.Int("Missing"); ok {
		t.Error("Int on missing key should report false")
	}
}
