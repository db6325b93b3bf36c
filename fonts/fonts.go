// Package fonts provides the text metrics the layout code draws with. Two
// implementations exist: Builtin wraps the standard 14 Helvetica faces with
// their AFM advance tables, and Face embeds a TrueType program shaped through
// HarfBuzz so table-of-contents titles survive in any script.
//
// All advances are expressed in text-space points for a given font size.
// Encode returns the string object a Tj operator shows: a literal string of
// byte codes for builtin faces, a hex string of glyph IDs for embedded ones.
package fonts

import "github.com/edocket/bindery/pdf"

// Metrics measures and encodes text for one face.
type Metrics interface {
	// Advance returns the width of text in points at the given size.
	Advance(text string, size float64) float64
	// Encode converts text to the string object shown by a Tj operator.
	Encode(text string) pdf.Object
	// Ascent and Descent are scaled to the given size. Descent is negative.
	Ascent(size float64) float64
	Descent(size float64) float64
	// Font returns the resource the writer materializes for this face.
	Font() *pdf.Font
}

const ellipsis = "..."

// Truncate shortens text so it fits within max points at the given size,
// appending an ellipsis when anything was cut. Text that already fits is
// returned unchanged.
func Truncate(m Metrics, text string, size, max float64) string {
	if m.Advance(text, size) <= max {
		return text
	}
	ellWidth := m.Advance(ellipsis, size)
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if m.Advance(string(runes), size)+ellWidth <= max {
			break
		}
	}
	return string(runes) + ellipsis
}
