// Package volumes splits an assembled bundle into page-capped parts, the
// convention courts use for oversized bundles. A split produces standalone
// PDF volumes plus a manifest, packaged together in a zip archive.
package volumes

import "github.com/edocket/bindery/pdf"

// DefaultCap is the page count above which a bundle splits.
const DefaultCap = 350

// Volume is one contiguous page range of the assembled document, inclusive
// on both ends, in final page coordinates.
type Volume struct {
	Number int
	Start  int
	End    int
}

// PageCount returns the number of pages in the volume.
func (v Volume) PageCount() int { return v.End - v.Start + 1 }

// Split partitions [0, total) into contiguous ranges of at most limit pages.
// A non-positive limit means DefaultCap. The ranges cover every page exactly
// once, so concatenating the volumes reproduces the original order.
func Split(total, limit int) []Volume {
	if limit <= 0 {
		limit = DefaultCap
	}
	if total <= 0 {
		return nil
	}
	var vols []Volume
	for start := 0; start < total; start += limit {
		end := start + limit - 1
		if end >= total {
			end = total - 1
		}
		vols = append(vols, Volume{Number: len(vols) + 1, Start: start, End: end})
	}
	return vols
}

// Extract copies one volume's pages into a standalone document. Page links
// are rebased into volume coordinates; a link whose target page now falls
// outside the volume keeps its out-of-range target and is dropped when the
// volume is written. Document-level navigation (outlines, page labels) does
// not carry over.
func Extract(doc *pdf.Document, v Volume) *pdf.Document {
	out := &pdf.Document{}
	if doc.Info != nil {
		info := *doc.Info
		out.Info = &info
	}
	for i := v.Start; i <= v.End && i < doc.PageCount(); i++ {
		pg := doc.Pages[i].Clone()
		for j := range pg.Links {
			pg.Links[j].Target -= v.Start
		}
		out.AddPage(pg)
	}
	return out
}
