// Package toc lays out and renders the bundle index. Measure computes a
// layout model assigning every entry a page and a bounding box; Render draws
// pages strictly from that model. Link rectangles and bookmarks consume the
// same model, so the drawn rows and the clickable regions cannot drift apart.
package toc

import (
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
)

// Entry is one index row. Header entries name a section; the rest are
// documents. PageIndex is the 0-based target page, in content-only
// coordinates until the front-matter shift and final coordinates after it.
type Entry struct {
	Title      string
	StartLabel string
	EndLabel   string
	PageIndex  int
	Header     bool
	Indent     bool
	Date       string
}

// Metadata is the caption block drawn at the top of the first index page.
type Metadata struct {
	Caption   string
	Court     string
	Date      string
	Parties   []string
	Reference string
}

// Config holds every layout constant of the index.
type Config struct {
	PageSize     pdf.Rect
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64

	CaptionSize   float64
	HeadingSize   float64
	RowSize       float64
	HeaderRowSize float64

	RowHeight       float64
	HeaderRowHeight float64

	DateColWidth  float64
	LabelColWidth float64
	Indent        float64
	ColumnGap     float64

	Regular fonts.Metrics
	Bold    fonts.Metrics
}

// DefaultConfig is an A4 index in Helvetica.
func DefaultConfig() Config {
	return Config{
		PageSize:        pdf.A4,
		MarginLeft:      50,
		MarginRight:     50,
		MarginTop:       50,
		MarginBottom:    50,
		CaptionSize:     16,
		HeadingSize:     13,
		RowSize:         11,
		HeaderRowSize:   12,
		RowHeight:       18,
		HeaderRowHeight: 26,
		DateColWidth:    70,
		LabelColWidth:   90,
		Indent:          16,
		ColumnGap:       6,
		Regular:         fonts.Helvetica(),
		Bold:            fonts.HelveticaBold(),
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
	if c.CaptionSize <= 0 {
		c.CaptionSize = d.CaptionSize
	}
	if c.HeadingSize <= 0 {
		c.HeadingSize = d.HeadingSize
	}
	if c.RowSize <= 0 {
		c.RowSize = d.RowSize
	}
	if c.HeaderRowSize <= 0 {
		c.HeaderRowSize = d.HeaderRowSize
	}
	if c.RowHeight <= 0 {
		c.RowHeight = d.RowHeight
	}
	if c.HeaderRowHeight <= 0 {
		c.HeaderRowHeight = d.HeaderRowHeight
	}
	if c.DateColWidth <= 0 {
		c.DateColWidth = d.DateColWidth
	}
	if c.LabelColWidth <= 0 {
		c.LabelColWidth = d.LabelColWidth
	}
	if c.Indent <= 0 {
		c.Indent = d.Indent
	}
	if c.ColumnGap <= 0 {
		c.ColumnGap = d.ColumnGap
	}
	if c.Regular == nil {
		c.Regular = d.Regular
	}
	if c.Bold == nil {
		c.Bold = d.Bold
	}
	return c
}

// Row is one measured entry: the index page it lands on, its bounding box on
// that page, and the title text after truncation.
type Row struct {
	Entry   Entry
	Display string
	Page    int
	Box     pdf.Rect
}

// Layout is the shared geometry model: produced by Measure, consumed
// read-only by Render and by the link and bookmark builders.
type Layout struct {
	Rows      []Row
	PageCount int
	Meta      Metadata
	Config    Config
}

// Measure assigns every entry a page and bounding box. The first page starts
// below the caption block; every page reserves room for the column header.
// Page count depends only on the number and kind of entries, never on their
// target pages, which is what lets the measure/shift fixed point converge.
func Measure(entries []Entry, meta Metadata, cfg Config) Layout {
	cfg = cfg.withDefaults()
	top := cfg.PageSize.URY - cfg.MarginTop

	page := 0
	cursor := top - captionHeight(meta, cfg) - headerHeight(cfg)
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		h := cfg.RowHeight
		if e.Header {
			h = cfg.HeaderRowHeight
		}
		if cursor-h < cfg.MarginBottom {
			page++
			cursor = top - headerHeight(cfg)
		}
		rows = append(rows, Row{
			Entry:   e,
			Display: displayTitle(e, cfg),
			Page:    page,
			Box: pdf.Rect{
				LLX: cfg.MarginLeft,
				LLY: cursor - h,
				URX: cfg.PageSize.URX - cfg.MarginRight,
				URY: cursor,
			},
		})
		cursor -= h
	}
	return Layout{Rows: rows, PageCount: page + 1, Meta: meta, Config: cfg}
}

type captionLine struct {
	text string
	bold bool
	size float64
	h    float64
}

func captionLines(meta Metadata, cfg Config) []captionLine {
	var lines []captionLine
	add := func(text string, bold bool, size, h float64) {
		lines = append(lines, captionLine{text: text, bold: bold, size: size, h: h})
	}
	if meta.Caption != "" {
		add(meta.Caption, true, cfg.CaptionSize, cfg.CaptionSize*1.6)
	}
	if meta.Court != "" {
		add(meta.Court, false, cfg.RowSize, cfg.RowSize*1.5)
	}
	if meta.Date != "" {
		add(meta.Date, false, cfg.RowSize, cfg.RowSize*1.5)
	}
	for _, party := range meta.Parties {
		if party != "" {
			add(party, false, cfg.RowSize, cfg.RowSize*1.5)
		}
	}
	add("INDEX", true, cfg.HeadingSize, cfg.HeadingSize*2)
	return lines
}

func captionHeight(meta Metadata, cfg Config) float64 {
	var h float64
	for _, line := range captionLines(meta, cfg) {
		h += line.h
	}
	return h
}

// headerHeight is the room the column header occupies on every page.
func headerHeight(cfg Config) float64 {
	return cfg.RowSize * 2
}

// titleRight is the x coordinate where the title column must end for the
// given entry kind: document rows stop before the date column, header rows
// before the label column.
func titleRight(header bool, cfg Config) float64 {
	right := cfg.PageSize.URX - cfg.MarginRight - cfg.LabelColWidth
	if !header {
		right -= cfg.DateColWidth
	}
	return right
}

func titleLeft(e Entry, cfg Config) float64 {
	x := cfg.MarginLeft
	if e.Indent && !e.Header {
		x += cfg.Indent
	}
	return x
}

func displayTitle(e Entry, cfg Config) string {
	font, size := cfg.Regular, cfg.RowSize
	if e.Header {
		font, size = cfg.Bold, cfg.HeaderRowSize
	}
	avail := titleRight(e.Header, cfg) - titleLeft(e, cfg) - cfg.ColumnGap
	return fonts.Truncate(font, e.Title, size, avail)
}
