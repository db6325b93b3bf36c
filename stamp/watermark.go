package stamp

import (
	"math"

	"github.com/edocket/bindery/draw"
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

const (
	watermarkAlpha = 0.15
	watermarkGray  = 0.7
	watermarkMax   = 96.0
)

// WatermarkPages draws text diagonally across every page.
func WatermarkPages(pages []*pdf.Page, text string) {
	for _, pg := range pages {
		Watermark(pg, text)
	}
}

// Watermark draws text along the page diagonal, centered, light gray and
// semi-transparent. The size is chosen so the run spans about three quarters
// of the diagonal, capped for short captions.
func Watermark(pg *pdf.Page, text string) {
	if text == "" {
		return
	}
	font := fonts.HelveticaBold()
	box := pg.MediaBox
	w, h := box.Width(), box.Height()
	diag := math.Hypot(w, h)

	unit := font.Advance(text, 1)
	if unit <= 0 {
		return
	}
	size := diag * 0.75 / unit
	if size > watermarkMax {
		size = watermarkMax
	}

	angle := math.Atan2(h, w)
	half := font.Advance(text, size) / 2
	cx := box.LLX + w/2
	cy := box.LLY + h/2
	x := cx - half*math.Cos(angle)
	y := cy - half*math.Sin(angle)

	o := draw.NewOverlay()
	o.Text(text, x, y, draw.TextOptions{
		Font:   font,
		Size:   size,
		Color:  draw.Color{R: watermarkGray, G: watermarkGray, B: watermarkGray},
		Alpha:  watermarkAlpha,
		Rotate: angle * 180 / math.Pi,
	})
	o.ApplyTo(pg)
}
