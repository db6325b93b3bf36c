package bundle

import (
	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/stamp"
	"github.com/edocket/bindery/toc"
)

// Annotate adds the interactive layer to an assembled bundle: one link per
// index row, the bookmark chain, and the running page-number stamps. layout
// must be the measured model the index pages were rendered from, with entry
// targets in final coordinates; indexStart is the physical page index of the
// first index page (the cover page count).
func Annotate(doc *pdf.Document, layout toc.Layout, indexStart int, s StampSettings) {
	addLinks(doc, layout, indexStart)
	addBookmarks(doc, layout, indexStart)
	stamp.NumberPages(doc.Pages, doc.PageLabels, s)
}

// addLinks puts one whole-page go-to link on each index row's bounding box.
func addLinks(doc *pdf.Document, layout toc.Layout, indexStart int) {
	for _, row := range layout.Rows {
		pageIdx := indexStart + row.Page
		if pageIdx < 0 || pageIdx >= doc.PageCount() {
			continue
		}
		if row.Entry.PageIndex < 0 || row.Entry.PageIndex >= doc.PageCount() {
			continue
		}
		pg := doc.Pages[pageIdx]
		pg.Links = append(pg.Links, pdf.Link{Rect: row.Box, Target: row.Entry.PageIndex})
	}
}

// addBookmarks builds the sidebar chain: a leading Index node, then one node
// per entry in index order. The chain is flat; sections and their documents
// sit at the same level.
func addBookmarks(doc *pdf.Document, layout toc.Layout, indexStart int) {
	items := make([]pdf.OutlineItem, 0, len(layout.Rows)+1)
	items = append(items, pdf.OutlineItem{Title: "Index", Page: indexStart})
	for _, row := range layout.Rows {
		if row.Entry.PageIndex < 0 || row.Entry.PageIndex >= doc.PageCount() {
			continue
		}
		items = append(items, pdf.OutlineItem{Title: row.Entry.Title, Page: row.Entry.PageIndex})
	}
	doc.Outlines = items
}
