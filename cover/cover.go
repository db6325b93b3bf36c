// Package cover renders optional front-matter note pages from Markdown or
// HTML. Only prose structure is honored: headings scale the font, paragraphs
// wrap, list items get a bullet. Cover pages carry no labels and receive no
// stamps; they exist to put filing notes ahead of the index.
package cover

import (
	"strings"

	"github.com/edocket/bindery/draw"
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

// Config holds the cover page geometry.
type Config struct {
	PageSize     pdf.Rect
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
	BaseSize     float64
	LineHeight   float64 // multiplier
	Regular      fonts.Metrics
	Bold         fonts.Metrics
}

// DefaultConfig is an A4 page in Helvetica.
func DefaultConfig() Config {
	return Config{
		PageSize:     pdf.A4,
		MarginLeft:   50,
		MarginRight:  50,
		MarginTop:    50,
		MarginBottom: 50,
		BaseSize:     12,
		LineHeight:   1.2,
		Regular:      fonts.Helvetica(),
		Bold:         fonts.HelveticaBold(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageSize.Width() <= 0 || c.PageSize.Height() <= 0 {
		c.PageSize = d.PageSize
	}
	if c.MarginLeft <= 0 {
		c.MarginLeft = d.MarginLeft
	}
	if c.MarginRight <= 0 {
		c.MarginRight = d.MarginRight
	}
	if c.MarginTop <= 0 {
		c.MarginTop = d.MarginTop
	}
	if c.MarginBottom <= 0 {
		c.MarginBottom = d.MarginBottom
	}
	if c.BaseSize <= 0 {
		c.BaseSize = d.BaseSize
	}
	if c.LineHeight <= 0 {
		c.LineHeight = d.LineHeight
	}
	if c.Regular == nil {
		c.Regular = d.Regular
	}
	if c.Bold == nil {
		c.Bold = d.Bold
	}
	return c
}

const bulletIndent = 15.0

// renderer walks blocks down the page, breaking to a new page when a line
// would cross the bottom margin.
type renderer struct {
	cfg   Config
	pages []*draw.Page
	cur   *draw.Page
	y     float64
}

func newRenderer(cfg Config) *renderer {
	return &renderer{cfg: cfg}
}

func (r *renderer) newPage() {
	r.cur = draw.NewPage(r.cfg.PageSize)
	r.pages = append(r.pages, r.cur)
	r.y = r.cfg.PageSize.URY - r.cfg.MarginTop
}

func (r *renderer) ensurePage() {
	if r.cur == nil {
		r.newPage()
	}
}

func (r *renderer) checkBreak(height float64) {
	r.ensurePage()
	if r.y-height < r.cfg.MarginBottom {
		r.newPage()
	}
}

// heading draws a single heading line scaled by its level.
func (r *renderer) heading(text string, level int) {
	if text == "" {
		return
	}
	size := r.cfg.BaseSize * 2.0
	switch {
	case level == 2:
		size = r.cfg.BaseSize * 1.5
	case level >= 3:
		size = r.cfg.BaseSize * 1.25
	}
	lineH := size * r.cfg.LineHeight
	r.checkBreak(lineH)
	r.cur.Text(text, r.cfg.MarginLeft, r.y-size, draw.TextOptions{Font: r.cfg.Bold, Size: size})
	r.y -= lineH
}

func (r *renderer) paragraph(text string) {
	r.wrapped(text, r.cfg.MarginLeft)
	r.spacing()
}

func (r *renderer) listItem(text string) {
	if text == "" {
		return
	}
	size := r.cfg.BaseSize
	lineH := size * r.cfg.LineHeight
	r.checkBreak(lineH)
	r.cur.Text("-", r.cfg.MarginLeft, r.y-size, draw.TextOptions{Font: r.cfg.Regular, Size: size})
	r.wrapped(text, r.cfg.MarginLeft+bulletIndent)
}

func (r *renderer) spacing() {
	if r.cur != nil {
		r.y -= r.cfg.BaseSize * r.cfg.LineHeight / 2
	}
}

// wrapped draws text with greedy word wrapping between x and the right
// margin.
func (r *renderer) wrapped(text string, x float64) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	size := r.cfg.BaseSize
	lineH := size * r.cfg.LineHeight
	maxW := r.cfg.PageSize.URX - r.cfg.MarginRight - x

	line := words[0]
	for _, word := range words[1:] {
		if r.cfg.Regular.Advance(line+" "+word, size) <= maxW {
			line += " " + word
			continue
		}
		r.emit(line, x, size, lineH)
		line = word
	}
	r.emit(line, x, size, lineH)
}

func (r *renderer) emit(line string, x, size, lineH float64) {
	r.checkBreak(lineH)
	r.cur.Text(line, x, r.y-size, draw.TextOptions{Font: r.cfg.Regular, Size: size})
	r.y -= lineH
}

func (r *renderer) finish() []*pdf.Page {
	if len(r.pages) == 0 {
		return nil
	}
	out := make([]*pdf.Page, len(r.pages))
	for i, p := range r.pages {
		out[i] = p.Finish()
	}
	return out
}
