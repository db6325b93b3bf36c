// Package stamp draws running page labels and preview watermarks as overlay
// content streams appended to existing pages. Stamps never change pagination:
// they draw over a page, they do not reflow it.
package stamp

import (
	"github.com/edocket/bindery/draw"
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

// Position places the label in one of the six page corners.
type Position int

const (
	TopLeft Position = iota
	TopCenter
	TopRight
	BottomLeft
	BottomCenter
	BottomRight
)

// Settings configures the page-number stamps.
type Settings struct {
	Position Position
	Size     float64
	Bold     bool
}

// DefaultSettings stamps the bottom right corner at 10pt.
func DefaultSettings() Settings {
	return Settings{Position: BottomRight, Size: 10}
}

// edge inset of the stamp baseline box.
const inset = 30.0

// NumberPages stamps labels[i] onto pages[i]. Empty labels are skipped, which
// is how cover and index pages stay unstamped.
func NumberPages(pages []*pdf.Page, labels []string, s Settings) {
	for i, pg := range pages {
		if i >= len(labels) {
			return
		}
		Number(pg, labels[i], s)
	}
}

// Number stamps a single label onto a page. Empty labels draw nothing.
func Number(pg *pdf.Page, label string, s Settings) {
	if label == "" {
		return
	}
	size := s.Size
	if size <= 0 {
		size = 10
	}
	var font fonts.Metrics = fonts.Helvetica()
	if s.Bold {
		font = fonts.HelveticaBold()
	}

	box := pg.MediaBox
	w := font.Advance(label, size)

	var x float64
	switch s.Position {
	case TopLeft, BottomLeft:
		x = box.LLX + inset
	case TopCenter, BottomCenter:
		x = (box.LLX+box.URX)/2 - w/2
	default:
		x = box.URX - inset - w
	}
	var y float64
	switch s.Position {
	case TopLeft, TopCenter, TopRight:
		y = box.URY - inset - size
	default:
		y = box.LLY + inset
	}

	o := draw.NewOverlay()
	o.Text(label, x, y, draw.TextOptions{Font: font, Size: size})
	o.ApplyTo(pg)
}
