package draw_test

import (
	"strings"
	"testing"

	"github.com/edocket/bindery/draw"
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

func TestPageText(t *testing.T) {
	p := draw.NewPage(pdf.A4)
	p.Text("Hello", 72, 720, draw.TextOptions{Size: 14})
	pg := p.Finish()

	if pg.MediaBox != pdf.A4 {
		t.Fatalf("media box = %+v", pg.MediaBox)
	}
	if len(pg.Contents) != 1 {
		t.Fatalf("contents = %d streams, want 1", len(pg.Contents))
	}
	content := string(pg.Contents[0].Data)
	for _, want := range []string{"BT\n", "/bnF0 14 Tf\n", "1 0 0 1 72 720 Tm\n", "(Hello) Tj\n", "ET\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("content lacks %q:\n%s", want, content)
		}
	}

	fontDict, ok := pg.Resources.DictVal("Font")
	if !ok {
		t.Fatal("missing Font resource dict")
	}
	ref, ok := fontDict.Get("bnF0")
	if !ok {
		t.Fatal("missing bnF0 entry")
	}
	fr, ok := ref.(pdf.FontRef)
	if !ok || fr.F.BaseFont != "Helvetica" {
		t.Fatalf("bnF0 = %#v, want Helvetica placeholder", ref)
	}
}

func TestTextRotationAndAlpha(t *testing.T) {
	o := draw.NewOverlay()
	o.Text("DRAFT", 300, 420, draw.TextOptions{
		Font:   fonts.HelveticaBold(),
		Size:   72,
		Color:  draw.Color{R: 0.7, G: 0.7, B: 0.7},
		Alpha:  0.15,
		Rotate: 45,
	})
	pg := &pdf.Page{MediaBox: pdf.A4}
	o.ApplyTo(pg)

	content := string(pg.Contents[0].Data)
	for _, want := range []string{
		"q\n",
		"/bnGS0 gs\n",
		"0.7 0.7 0.7 rg\n",
		"0.7071 0.7071 -0.7071 0.7071 300 420 Tm\n",
		"Q\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content lacks %q:\n%s", want, content)
		}
	}

	gsDict, ok := pg.Resources.DictVal("ExtGState")
	if !ok {
		t.Fatal("missing ExtGState resource dict")
	}
	gs, ok := gsDict.Get("bnGS0")
	if !ok {
		t.Fatal("missing bnGS0 entry")
	}
	if ga, ok := gs.(pdf.GSAlpha); !ok || ga.Alpha != 0.15 {
		t.Fatalf("bnGS0 = %#v, want alpha 0.15", gs)
	}
}

func TestOverlayMergesExistingResources(t *testing.T) {
	res := pdf.NewDict()
	srcFonts := pdf.NewDict()
	srcFonts.Set("F1", pdf.Ref{Num: 9})
	res.Set("Font", srcFonts)
	pg := &pdf.Page{
		MediaBox:  pdf.A4,
		Contents:  []pdf.Content{{Data: []byte("0 0 m 10 10 l S\n")}},
		Resources: res,
	}

	o := draw.NewOverlay()
	o.Text("A001", 500, 30, draw.TextOptions{Size: 10})
	o.ApplyTo(pg)

	if len(pg.Contents) != 2 {
		t.Fatalf("contents = %d streams, want overlay appended", len(pg.Contents))
	}
	fontDict, _ := pg.Resources.DictVal("Font")
	if _, ok := fontDict.Get("F1"); !ok {
		t.Fatal("existing font entry was dropped")
	}
	if _, ok := fontDict.Get("bnF0"); !ok {
		t.Fatal("overlay font entry missing")
	}
}

func TestEmptyOverlayIsNoop(t *testing.T) {
	pg := &pdf.Page{MediaBox: pdf.Letter}
	draw.NewOverlay().ApplyTo(pg)
	if len(pg.Contents) != 0 || pg.Resources != nil {
		t.Fatalf("empty overlay modified the page: %+v", pg)
	}
}

func TestRectDefaultsToStroke(t *testing.T) {
	p := draw.NewPage(pdf.Letter)
	p.Rect(10, 20, 100, 50, draw.RectOptions{})
	content := string(p.Finish().Contents[0].Data)
	if !strings.Contains(content, "10 20 100 50 re\nS\n") {
		t.Fatalf("rect ops wrong:\n%s", content)
	}
}

func TestRectFillAndStroke(t *testing.T) {
	p := draw.NewPage(pdf.Letter)
	p.Rect(0, 0, 10, 10, draw.RectOptions{Fill: true, Stroke: true, FillColor: draw.Color{R: 1}})
	content := string(p.Finish().Contents[0].Data)
	if !strings.Contains(content, "1 0 0 rg\n") || !strings.Contains(content, "re\nB\n") {
		t.Fatalf("fill+stroke ops wrong:\n%s", content)
	}
}

func TestLine(t *testing.T) {
	p := draw.NewPage(pdf.A4)
	p.Line(50, 770, 545, 770, draw.LineOptions{Color: draw.Color{R: 0.4, G: 0.4, B: 0.4}, Width: 0.5})
	content := string(p.Finish().Contents[0].Data)
	for _, want := range []string{"0.4 0.4 0.4 RG\n", "0.5 w\n", "50 770 m\n", "545 770 l\n", "S\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("content lacks %q:\n%s", want, content)
		}
	}
}

func TestFontNamesAreStablePerFace(t *testing.T) {
	p := draw.NewPage(pdf.A4)
	helv := fonts.Helvetica()
	bold := fonts.HelveticaBold()
	p.Text("one", 0, 0, draw.TextOptions{Font: helv})
	p.Text("two", 0, 20, draw.TextOptions{Font: bold})
	p.Text("three", 0, 40, draw.TextOptions{Font: helv})
	content := string(p.Finish().Contents[0].Data)
	if strings.Count(content, "/bnF0 ") != 2 {
		t.Fatalf("expected bnF0 reused for the repeated face:\n%s", content)
	}
	if !strings.Contains(content, "/bnF1 ") {
		t.Fatalf("expected a second font name for the bold face:\n%s", content)
	}
}
