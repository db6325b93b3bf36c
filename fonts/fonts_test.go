package fonts_test

import (
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

func TestDetectScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect language.Script
	}{
		{"latin", "Hello World", language.Latin},
		{"arabic", "مرحبا بالعالم", language.Arabic},
		{"hebrew", "שלום עולם", language.Hebrew},
		{"cyrillic", "Привет мир", language.Cyrillic},
		{"greek", "Γειά σου Κόσμε", language.Greek},
		{"han", "你好世界", language.Han},
		{"hiragana", "こんにちは", language.Hiragana},
		{"hangul", "안녕하세요", language.Hangul},
		{"mixed latin dominant", "Hello World مرحبا", language.Latin},
		{"mixed arabic dominant", "مرحبا بالعالم Hello", language.Arabic},
		{"digits only fall back to latin", "12345", language.Latin},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fonts.DetectScript([]rune(tc.input)); got != tc.expect {
				t.Errorf("DetectScript(%q) = %v, want %v", tc.input, got, tc.expect)
			}
		})
	}
}

func TestBuiltinAdvance(t *testing.T) {
	helv := fonts.Helvetica()
	// H is 722 and i is 222 in the Helvetica AFM.
	got := helv.Advance("Hi", 10)
	if want := 9.44; !near(got, want) {
		t.Fatalf("advance = %v, want %v", got, want)
	}
	if helv.Advance("", 10) != 0 {
		t.Fatalf("empty string should have zero advance")
	}
}

func TestBuiltinBoldIsWider(t *testing.T) {
	text := "The quick brown fox"
	reg := fonts.Helvetica().Advance(text, 12)
	bold := fonts.HelveticaBold().Advance(text, 12)
	if bold <= reg {
		t.Fatalf("bold advance %v should exceed regular %v", bold, reg)
	}
}

func TestBuiltinEncodeReplacesNonASCII(t *testing.T) {
	helv := fonts.Helvetica()
	obj := helv.Encode("Héllo — café")
	str, ok := obj.(pdf.String)
	if !ok {
		t.Fatalf("encode returned %T, want pdf.String", obj)
	}
	if str.Hex {
		t.Fatalf("builtin faces encode literal strings, not hex")
	}
	if got, want := string(str.Data), "H?llo ? caf?"; got != want {
		t.Fatalf("encoded %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	helv := fonts.Helvetica()
	text := "Witness statement of Jane Example"
	full := helv.Advance(text, 10)

	if got := fonts.Truncate(helv, text, 10, full); got != text {
		t.Fatalf("text that fits was altered: %q", got)
	}

	cut := fonts.Truncate(helv, text, 10, full/2)
	if cut == text {
		t.Fatalf("text wider than the limit was not truncated")
	}
	if len(cut) < 3 || cut[len(cut)-3:] != "..." {
		t.Fatalf("truncated text %q lacks ellipsis", cut)
	}
	if got := helv.Advance(cut, 10); got > full/2 {
		t.Fatalf("truncated advance %v exceeds limit %v", got, full/2)
	}

	if got := fonts.Truncate(helv, text, 10, 1); got != "..." {
		t.Fatalf("limit below the ellipsis width should leave %q, got %q", "...", got)
	}
}

func TestBuiltinFontResource(t *testing.T) {
	f := fonts.HelveticaBold().Font()
	if f.BaseFont != "Helvetica-Bold" {
		t.Fatalf("BaseFont = %q", f.BaseFont)
	}
	if f.Data != nil {
		t.Fatalf("builtin faces must not carry a font program")
	}
	if f.Flags != 32 {
		t.Fatalf("Flags = %d, want nonsymbolic", f.Flags)
	}
}

func TestNewFaceRejectsGarbage(t *testing.T) {
	if _, err := fonts.NewFace("broken", []byte("not a font program")); err == nil {
		t.Fatal("expected error for garbage font data")
	}
	if _, err := fonts.NewFace("empty", nil); err == nil {
		t.Fatal("expected error for empty font data")
	}
}

func near(got, want float64) bool {
	d := got - want
	return d < 1e-6 && d > -1e-6
}
