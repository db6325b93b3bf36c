package pdf

// Rect is a rectangle in default user space, lower-left origin.
type Rect struct {
	LLX, LLY, URX, URY float64
}

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Standard page sizes in points.
var (
	A4     = Rect{URX: 595.28, URY: 841.89}
	Letter = Rect{URX: 612, URY: 792}
)

// Content is one content stream of a page. Data holds the bytes exactly as
// stored in the source; Filter and DecodeParms are carried verbatim so
// imported content round-trips without re-encoding. Generated content has a
// nil Filter and may be compressed by the writer.
type Content struct {
	Data        []byte
	Filter      Object
	DecodeParms Object
}

// Link is an internal go-to annotation. Target is a 0-based page index in
// the owning document; the destination always fits the whole page.
type Link struct {
	Rect   Rect
	Target int
}

// Page is a single page, self-contained: its resource tree has been fully
// resolved (no dangling references into a source file), so pages can be
// moved between documents freely.
type Page struct {
	MediaBox  Rect
	CropBox   *Rect
	Rotate    int
	Contents  []Content
	Resources *Dict
	Links     []Link
}

// Clone returns a copy sharing content data but with its own slices and
// resource dictionary header, so per-volume link rewrites cannot alias.
func (p *Page) Clone() *Page {
	out := &Page{
		MediaBox: p.MediaBox,
		Rotate:   p.Rotate,
	}
	if p.CropBox != nil {
		cb := *p.CropBox
		out.CropBox = &cb
	}
	out.Contents = append([]Content(nil), p.Contents...)
	out.Links = append([]Link(nil), p.Links...)
	if p.Resources != nil {
		out.Resources = p.Resources.Clone()
	}
	return out
}

// OutlineItem is one bookmark. Items form a flat sibling chain in document
// order; the writer links Prev/Next/First/Last.
type OutlineItem struct {
	Title string
	Page  int
}

// Info is the document information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// Document is an ordered page collection plus document-level structure.
type Document struct {
	Pages    []*Page
	Info     *Info
	Outlines []OutlineItem

	// PageLabels holds one display label per page; empty strings mark
	// front-matter pages (shown as roman numerals by viewers).
	PageLabels []string
}

// AddPage appends a page and returns its index.
func (d *Document) AddPage(p *Page) int {
	d.Pages = append(d.Pages, p)
	return len(d.Pages) - 1
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.Pages) }
