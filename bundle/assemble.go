package bundle

import (
	"context"
	"fmt"

	"github.com/edocket/bindery/draw"
	"github.com/edocket/bindery/fonts"
	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/toc"
)

const dividerSize = 24.0

// Assemble merges front matter and the planned content blocks into one
// document and fills the page label array: empty labels for the front
// pages, the plan's labels for the content pages. Imported pages keep their
// content verbatim, wrapped in a graphics-state save/restore so later
// overlays start from default state; their interactive artifacts are not
// carried because merge targets do not survive. cfg supplies the page size
// and face for generated divider pages. The context is checked per
// document.
func Assemble(ctx context.Context, front []*pdf.Page, plan *Plan, cfg toc.Config) (*pdf.Document, error) {
	doc := &pdf.Document{}
	for _, pg := range front {
		doc.AddPage(pg)
		doc.PageLabels = append(doc.PageLabels, "")
	}

	for _, b := range plan.Blocks {
		if b.Doc == nil {
			doc.AddPage(dividerPage(b.DividerTitle, cfg))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, idx := range b.Doc.Pages {
			if idx < 0 || idx >= len(b.Doc.Source.Pages) {
				return nil, fmt.Errorf("assemble: document %q: page %d out of range",
					b.Doc.Doc.DisplayTitle(), idx)
			}
			doc.AddPage(importPage(b.Doc.Source.Pages[idx]))
		}
	}
	doc.PageLabels = append(doc.PageLabels, plan.Labels...)

	if len(doc.PageLabels) != doc.PageCount() {
		return nil, fmt.Errorf("assemble: %d labels for %d pages", len(doc.PageLabels), doc.PageCount())
	}
	return doc, nil
}

// importPage copies a source page, bracketing its content streams with q/Q
// so whatever graphics state the source leaves open cannot leak into stamps
// and watermarks appended later.
func importPage(src *pdf.Page) *pdf.Page {
	out := &pdf.Page{
		MediaBox: src.MediaBox,
		Rotate:   src.Rotate,
	}
	if src.CropBox != nil {
		cb := *src.CropBox
		out.CropBox = &cb
	}
	if src.Resources != nil {
		out.Resources = src.Resources.Clone()
	}
	out.Contents = make([]pdf.Content, 0, len(src.Contents)+2)
	out.Contents = append(out.Contents, pdf.Content{Data: []byte("q\n")})
	out.Contents = append(out.Contents, src.Contents...)
	out.Contents = append(out.Contents, pdf.Content{Data: []byte("Q\n")})
	return out
}

// dividerPage draws the section name centered on an otherwise blank page.
func dividerPage(title string, cfg toc.Config) *pdf.Page {
	size := cfg.PageSize
	if size.Width() <= 0 || size.Height() <= 0 {
		size = pdf.A4
	}
	face := cfg.Bold
	if face == nil {
		face = fonts.HelveticaBold()
	}
	margin := cfg.MarginLeft
	if margin <= 0 {
		margin = 50
	}

	pg := draw.NewPage(size)
	text := fonts.Truncate(face, title, dividerSize, size.Width()-2*margin)
	x := (size.Width() - face.Advance(text, dividerSize)) / 2
	if x < margin {
		x = margin
	}
	y := size.URY * 0.6
	pg.Text(text, x, y, draw.TextOptions{Font: face, Size: dividerSize})
	return pg.Finish()
}
