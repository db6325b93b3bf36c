package fonts

import "github.com/edocket/bindery/pdf"

// Builtin is a standard 14 face measured from its AFM advance table. Codes
// outside printable ASCII are shown as a question mark; callers needing more
// than that embed a Face instead.
type Builtin struct {
	name      string
	widths    [95]int // codes 32..126, 1000/em units
	ascent    float64
	descent   float64
	capHeight float64
	font      *pdf.Font
}

func newBuiltin(name string, widths [95]int) *Builtin {
	b := &Builtin{
		name:      name,
		widths:    widths,
		ascent:    718,
		descent:   -207,
		capHeight: 718,
	}
	b.font = &pdf.Font{
		BaseFont:  b.name,
		Ascent:    b.ascent,
		Descent:   b.descent,
		CapHeight: b.capHeight,
		Flags:     32,
	}
	return b
}

// Helvetica returns the regular Helvetica face.
func Helvetica() *Builtin { return newBuiltin("Helvetica", helveticaWidths) }

// HelveticaBold returns the bold Helvetica face.
func HelveticaBold() *Builtin { return newBuiltin("Helvetica-Bold", helveticaBoldWidths) }

func (b *Builtin) codeWidth(r rune) int {
	if r < 32 || r > 126 {
		r = '?'
	}
	return b.widths[r-32]
}

func (b *Builtin) Advance(text string, size float64) float64 {
	total := 0
	for _, r := range text {
		total += b.codeWidth(r)
	}
	return float64(total) * size / 1000
}

func (b *Builtin) Encode(text string) pdf.Object {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 32 || r > 126 {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return pdf.String{Data: out}
}

func (b *Builtin) Ascent(size float64) float64  { return b.ascent * size / 1000 }
func (b *Builtin) Descent(size float64) float64 { return b.descent * size / 1000 }

func (b *Builtin) Font() *pdf.Font { return b.font }

// Advance tables from the Adobe AFM files, codes 32..126.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333,
	389, 584, 278, 333, 278, 278, 556, 556, 556, 556,
	556, 556, 556, 556, 556, 556, 278, 278, 584, 584,
	584, 556, 1015, 667, 667, 722, 722, 667, 611, 778,
	722, 278, 500, 667, 556, 833, 722, 778, 667, 778,
	722, 667, 611, 722, 667, 944, 667, 667, 611, 278,
	278, 278, 469, 556, 333, 556, 556, 500, 556, 556,
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500,
	500, 334, 260, 334, 584,
}

var helveticaBoldWidths = [95]int{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333,
	389, 584, 278, 333, 278, 278, 556, 556, 556, 556,
	556, 556, 556, 556, 556, 556, 333, 333, 584, 584,
	584, 611, 975, 722, 722, 722, 722, 667, 611, 778,
	722, 278, 556, 722, 611, 833, 722, 778, 667, 778,
	722, 667, 611, 722, 667, 944, 667, 667, 611, 333,
	278, 333, 584, 556, 333, 556, 611, 556, 611, 556,
	333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
	611, 611, 389, 556, 333, 611, 556, 778, 556, 556,
	500, 389, 280, 389, 584,
}
