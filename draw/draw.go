// Package draw builds page content streams. A Page accumulates operators for
// a newly generated page (index, cover, divider); an Overlay accumulates
// operators appended on top of an existing page (stamps, watermarks) and
// merges the resources it used into that page under collision-proof names.
package draw

import (
	"math"
	"strconv"

	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

// Color is an RGB fill or stroke color in [0,1]. The zero value leaves the
// device default (black) in effect without emitting an operator.
type Color struct {
	R, G, B float64
}

func (c Color) zero() bool { return c.R == 0 && c.G == 0 && c.B == 0 }

// TextOptions configures a single text run.
type TextOptions struct {
	Font  fonts.Metrics // nil selects Helvetica
	Size  float64       // defaults to 12
	Color Color
	// Alpha in (0,1) draws the run through an ExtGState with that fill
	// alpha. 0 and 1 both mean opaque.
	Alpha float64
	// Rotate tilts the baseline counterclockwise by degrees about (x, y).
	Rotate float64
}

// LineOptions configures a stroked line.
type LineOptions struct {
	Color Color
	Width float64 // 0 keeps the device default of 1
}

// RectOptions configures a rectangle. With neither Fill nor Stroke set the
// rectangle is stroked.
type RectOptions struct {
	Fill        bool
	Stroke      bool
	FillColor   Color
	StrokeColor Color
	Width       float64
}

// Canvas collects content operators and the font and graphics-state
// resources they name. The zero value is ready to use.
type Canvas struct {
	ops    []pdf.Operation
	fonts  map[fonts.Metrics]pdf.Name
	alphas map[float64]pdf.Name
}

func (c *Canvas) fontName(m fonts.Metrics) pdf.Name {
	if c.fonts == nil {
		c.fonts = make(map[fonts.Metrics]pdf.Name)
	}
	if name, ok := c.fonts[m]; ok {
		return name
	}
	name := pdf.Name("bnF" + strconv.Itoa(len(c.fonts)))
	c.fonts[m] = name
	return name
}

func (c *Canvas) alphaName(alpha float64) pdf.Name {
	if c.alphas == nil {
		c.alphas = make(map[float64]pdf.Name)
	}
	if name, ok := c.alphas[alpha]; ok {
		return name
	}
	name := pdf.Name("bnGS" + strconv.Itoa(len(c.alphas)))
	c.alphas[alpha] = name
	return name
}

func (c *Canvas) op(name string, args ...pdf.Object) {
	c.ops = append(c.ops, pdf.Operation{Op: name, Args: args})
}

// Text draws one run with its baseline starting at (x, y).
func (c *Canvas) Text(text string, x, y float64, opts TextOptions) {
	if text == "" {
		return
	}
	font := opts.Font
	if font == nil {
		font = fonts.Helvetica()
	}
	size := opts.Size
	if size <= 0 {
		size = 12
	}
	translucent := opts.Alpha > 0 && opts.Alpha < 1
	isolate := translucent || opts.Rotate != 0
	if isolate {
		c.op("q")
	}
	c.op("BT")
	if translucent {
		c.op("gs", c.alphaName(opts.Alpha))
	}
	if !opts.Color.zero() {
		c.op("rg", pdf.Real(opts.Color.R), pdf.Real(opts.Color.G), pdf.Real(opts.Color.B))
	}
	c.op("Tf", c.fontName(font), pdf.Real(size))
	if opts.Rotate != 0 {
		rad := opts.Rotate * math.Pi / 180
		cos, sin := math.Cos(rad), math.Sin(rad)
		c.op("Tm", pdf.Real(cos), pdf.Real(sin), pdf.Real(-sin), pdf.Real(cos), pdf.Real(x), pdf.Real(y))
	} else {
		c.op("Tm", pdf.Real(1), pdf.Real(0), pdf.Real(0), pdf.Real(1), pdf.Real(x), pdf.Real(y))
	}
	c.op("Tj", font.Encode(text))
	c.op("ET")
	if isolate {
		c.op("Q")
	}
}

// Line strokes a straight line from (x1, y1) to (x2, y2).
func (c *Canvas) Line(x1, y1, x2, y2 float64, opts LineOptions) {
	c.op("q")
	if !opts.Color.zero() {
		c.op("RG", pdf.Real(opts.Color.R), pdf.Real(opts.Color.G), pdf.Real(opts.Color.B))
	}
	if opts.Width > 0 {
		c.op("w", pdf.Real(opts.Width))
	}
	c.op("m", pdf.Real(x1), pdf.Real(y1))
	c.op("l", pdf.Real(x2), pdf.Real(y2))
	c.op("S")
	c.op("Q")
}

// Rect draws a rectangle with lower-left corner (x, y).
func (c *Canvas) Rect(x, y, w, h float64, opts RectOptions) {
	if !opts.Fill && !opts.Stroke {
		opts.Stroke = true
	}
	c.op("q")
	if opts.Fill && !opts.FillColor.zero() {
		c.op("rg", pdf.Real(opts.FillColor.R), pdf.Real(opts.FillColor.G), pdf.Real(opts.FillColor.B))
	}
	if opts.Stroke && !opts.StrokeColor.zero() {
		c.op("RG", pdf.Real(opts.StrokeColor.R), pdf.Real(opts.StrokeColor.G), pdf.Real(opts.StrokeColor.B))
	}
	if opts.Width > 0 {
		c.op("w", pdf.Real(opts.Width))
	}
	c.op("re", pdf.Real(x), pdf.Real(y), pdf.Real(w), pdf.Real(h))
	c.op(paintOperator(opts.Fill, opts.Stroke))
	c.op("Q")
}

func paintOperator(fill, stroke bool) string {
	switch {
	case fill && stroke:
		return "B"
	case fill:
		return "f"
	}
	return "S"
}

// Empty reports whether nothing has been drawn.
func (c *Canvas) Empty() bool { return len(c.ops) == 0 }

// resourceEntries writes the canvas fonts and graphics states into the Font
// and ExtGState subdictionaries of res.
func (c *Canvas) resourceEntries(res *pdf.Dict) {
	if len(c.fonts) > 0 {
		fontDict, _ := res.DictVal("Font")
		if fontDict == nil {
			fontDict = pdf.NewDict()
			res.Set("Font", fontDict)
		}
		for m, name := range c.fonts {
			fontDict.Set(string(name), pdf.FontRef{F: m.Font()})
		}
	}
	if len(c.alphas) > 0 {
		gsDict, _ := res.DictVal("ExtGState")
		if gsDict == nil {
			gsDict = pdf.NewDict()
			res.Set("ExtGState", gsDict)
		}
		for alpha, name := range c.alphas {
			gsDict.Set(string(name), pdf.GSAlpha{Alpha: alpha})
		}
	}
}

// Page builds a new page.
type Page struct {
	Canvas
	box pdf.Rect
}

func NewPage(box pdf.Rect) *Page {
	return &Page{box: box}
}

// Finish serializes the accumulated operators into a page.
func (p *Page) Finish() *pdf.Page {
	pg := &pdf.Page{MediaBox: p.box}
	if !p.Empty() {
		pg.Contents = []pdf.Content{{Data: pdf.SerializeOps(p.ops)}}
		res := pdf.NewDict()
		p.resourceEntries(res)
		pg.Resources = res
	}
	return pg
}

// Overlay builds operators drawn on top of an existing page.
type Overlay struct {
	Canvas
}

func NewOverlay() *Overlay { return &Overlay{} }

// ApplyTo appends the overlay as its own content stream and merges the
// resources it uses into the page. Resource names carry a bn prefix so they
// cannot collide with names already present on an imported page.
func (o *Overlay) ApplyTo(pg *pdf.Page) {
	if o.Empty() {
		return
	}
	pg.Contents = append(pg.Contents, pdf.Content{Data: pdf.SerializeOps(o.ops)})
	if pg.Resources == nil {
		pg.Resources = pdf.NewDict()
	}
	o.resourceEntries(pg.Resources)
}
