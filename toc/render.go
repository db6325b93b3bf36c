package toc

import (
	"github.com/edocket/bindery/draw"
	"github.com/edocket/bindery/pdf"
)

// Render draws the index pages described by the layout. It never recomputes
// geometry: row positions, page breaks, and the page count all come from the
// model, so the result always has exactly layout.PageCount pages.
func Render(l Layout) []*pdf.Page {
	cfg := l.Config.withDefaults()
	top := cfg.PageSize.URY - cfg.MarginTop

	pages := make([]*draw.Page, l.PageCount)
	for i := range pages {
		pages[i] = draw.NewPage(cfg.PageSize)
	}

	y := top
	for _, line := range captionLines(l.Meta, cfg) {
		font := cfg.Regular
		if line.bold {
			font = cfg.Bold
		}
		x := (cfg.PageSize.URX - font.Advance(line.text, line.size)) / 2
		pages[0].Text(line.text, x, y-line.size, draw.TextOptions{Font: font, Size: line.size})
		y -= line.h
	}

	for i := range pages {
		headerTop := top
		if i == 0 {
			headerTop = top - captionHeight(l.Meta, cfg)
		}
		drawColumnHeader(&pages[i].Canvas, headerTop, cfg)
	}

	for _, row := range l.Rows {
		drawRow(&pages[row.Page].Canvas, row, cfg)
	}

	out := make([]*pdf.Page, len(pages))
	for i, p := range pages {
		out[i] = p.Finish()
	}
	return out
}

func drawColumnHeader(c *draw.Canvas, top float64, cfg Config) {
	base := top - cfg.RowSize
	opts := draw.TextOptions{Font: cfg.Bold, Size: cfg.RowSize}
	c.Text("Description", cfg.MarginLeft, base, opts)
	c.Text("Date", dateColumnX(cfg), base, opts)
	label := "Page"
	c.Text(label, cfg.PageSize.URX-cfg.MarginRight-cfg.Bold.Advance(label, cfg.RowSize), base, opts)
	ruleY := base - 4
	c.Line(cfg.MarginLeft, ruleY, cfg.PageSize.URX-cfg.MarginRight, ruleY, draw.LineOptions{Width: 0.75})
}

func drawRow(c *draw.Canvas, row Row, cfg Config) {
	e := row.Entry
	font, size := cfg.Regular, cfg.RowSize
	if e.Header {
		font, size = cfg.Bold, cfg.HeaderRowSize
	}
	base := row.Box.URY - size

	c.Text(row.Display, titleLeft(e, cfg), base, draw.TextOptions{Font: font, Size: size})

	if !e.Header && e.Date != "" {
		c.Text(e.Date, dateColumnX(cfg), base, draw.TextOptions{Font: cfg.Regular, Size: cfg.RowSize})
	}

	if rng := rangeText(e); rng != "" {
		x := cfg.PageSize.URX - cfg.MarginRight - font.Advance(rng, size)
		c.Text(rng, x, base, draw.TextOptions{Font: font, Size: size})
	}
}

func dateColumnX(cfg Config) float64 {
	return cfg.PageSize.URX - cfg.MarginRight - cfg.LabelColWidth - cfg.DateColWidth
}

// rangeText renders the label column: a single label for one-page documents
// and section headers, a dashed range otherwise.
func rangeText(e Entry) string {
	switch {
	case e.StartLabel == "":
		return ""
	case e.EndLabel == "" || e.EndLabel == e.StartLabel:
		return e.StartLabel
	}
	return e.StartLabel + " - " + e.EndLabel
}
