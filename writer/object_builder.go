package writer

import (
	"context"
	"errors"
	"fmt"

	"github.com/edocket/bindery/filters"
	"github.com/edocket/bindery/pdf"
)

const maxResourceDepth = 64

// builder accumulates the object table. Catalog and page-tree references are
// allocated up front so page dictionaries can name their parent before the
// tree object exists.
type builder struct {
	doc *pdf.Document
	cfg Config

	objects map[pdf.Ref]pdf.Object
	objNum  int

	catalogRef pdf.Ref
	pagesRef   pdf.Ref
	infoRef    *pdf.Ref
	pageRefs   []pdf.Ref

	// streamKeys dedups identical stream objects; the graphics-state
	// sandwich around every imported page makes this pay for itself.
	streamKeys map[[32]byte]pdf.Ref
	fontRefs   map[*pdf.Font]pdf.Ref
	fontKeys   map[string]pdf.Ref
}

func newBuilder(doc *pdf.Document, cfg Config) *builder {
	b := &builder{
		doc:        doc,
		cfg:        cfg,
		objects:    make(map[pdf.Ref]pdf.Object),
		objNum:     1,
		streamKeys: make(map[[32]byte]pdf.Ref),
		fontRefs:   make(map[*pdf.Font]pdf.Ref),
		fontKeys:   make(map[string]pdf.Ref),
	}
	b.catalogRef = b.nextRef()
	b.pagesRef = b.nextRef()
	return b
}

func (b *builder) nextRef() pdf.Ref {
	ref := pdf.Ref{Num: b.objNum}
	b.objNum++
	return ref
}

func (b *builder) build(ctx context.Context) error {
	pageDicts := make([]*pdf.Dict, len(b.doc.Pages))
	for i, pg := range b.doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := b.nextRef()
		b.pageRefs = append(b.pageRefs, ref)
		dict, err := b.pageDict(pg)
		if err != nil {
			return fmt.Errorf("writer: page %d: %w", i, err)
		}
		b.objects[ref] = dict
		pageDicts[i] = dict
	}

	// Annotations go in a second pass so destinations can name any page.
	for i, pg := range b.doc.Pages {
		if annots := b.annotations(pg.Links); len(annots) > 0 {
			pageDicts[i].Set("Annots", annots)
		}
	}

	kids := make(pdf.Array, len(b.pageRefs))
	for i, ref := range b.pageRefs {
		kids[i] = ref
	}
	pages := pdf.NewDict()
	pages.Set("Type", pdf.Name("Pages"))
	pages.Set("Kids", kids)
	pages.Set("Count", pdf.Integer(len(b.pageRefs)))
	b.objects[b.pagesRef] = pages

	catalog := pdf.NewDict()
	catalog.Set("Type", pdf.Name("Catalog"))
	catalog.Set("Pages", b.pagesRef)
	b.buildOutlines(catalog)
	if nums := pageLabelNums(b.doc.PageLabels, len(b.doc.Pages)); nums != nil {
		labels := pdf.NewDict()
		labels.Set("Nums", nums)
		catalog.Set("PageLabels", labels)
	}
	b.objects[b.catalogRef] = catalog

	b.buildInfo()
	return nil
}

func (b *builder) pageDict(pg *pdf.Page) (*pdf.Dict, error) {
	dict := pdf.NewDict()
	dict.Set("Type", pdf.Name("Page"))
	dict.Set("Parent", b.pagesRef)
	dict.Set("MediaBox", rectArray(pg.MediaBox))
	if pg.CropBox != nil {
		dict.Set("CropBox", rectArray(*pg.CropBox))
	}
	if rot := normalizeRotation(pg.Rotate); rot != 0 {
		dict.Set("Rotate", pdf.Integer(rot))
	}

	switch len(pg.Contents) {
	case 0:
	case 1:
		dict.Set("Contents", b.contentRef(pg.Contents[0]))
	default:
		arr := make(pdf.Array, 0, len(pg.Contents))
		for _, c := range pg.Contents {
			arr = append(arr, b.contentRef(c))
		}
		dict.Set("Contents", arr)
	}

	res := pg.Resources
	if res == nil {
		res = pdf.NewDict()
	}
	resolved, err := b.materialize(res, 0)
	if err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	dict.Set("Resources", resolved)
	return dict, nil
}

// contentRef turns one content stream into an indirect stream object.
// Generated streams (nil filter) are compressed when the config asks for it;
// imported streams keep their stored bytes and filter chain untouched.
func (b *builder) contentRef(c pdf.Content) pdf.Ref {
	key := streamKey(c.Data, c.Filter, c.DecodeParms)
	if ref, ok := b.streamKeys[key]; ok {
		return ref
	}

	data := c.Data
	filter := c.Filter
	if filter == nil && b.cfg.Compress && len(data) > 0 {
		data = filters.FlateEncode(data)
		filter = pdf.Name("FlateDecode")
	}

	dict := pdf.NewDict()
	dict.Set("Length", pdf.Integer(len(data)))
	if filter != nil {
		dict.Set("Filter", filter)
	}
	if c.DecodeParms != nil {
		dict.Set("DecodeParms", c.DecodeParms)
	}
	ref := b.nextRef()
	b.objects[ref] = pdf.NewStream(dict, data)
	b.streamKeys[key] = ref
	return ref
}

// materialize walks a resource tree replacing writer placeholders with real
// objects and hoisting embedded streams to indirect objects. Everything else
// is copied through.
func (b *builder) materialize(obj pdf.Object, depth int) (pdf.Object, error) {
	if depth > maxResourceDepth {
		return nil, errors.New("tree too deep")
	}
	switch v := obj.(type) {
	case pdf.FontRef:
		if v.F == nil {
			return pdf.Null{}, nil
		}
		return b.ensureFont(v.F), nil
	case pdf.GSAlpha:
		gs := pdf.NewDict()
		gs.Set("Type", pdf.Name("ExtGState"))
		gs.Set("ca", pdf.Real(v.Alpha))
		return gs, nil
	case *pdf.Dict:
		out := pdf.NewDict()
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			resolved, err := b.materialize(item, depth+1)
			if err != nil {
				return nil, err
			}
			out.Set(k, resolved)
		}
		return out, nil
	case pdf.Array:
		out := make(pdf.Array, len(v))
		for i, item := range v {
			resolved, err := b.materialize(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case *pdf.Stream:
		dictObj, err := b.materialize(v.Dict, depth+1)
		if err != nil {
			return nil, err
		}
		return b.ensureStream(dictObj.(*pdf.Dict), v.Data), nil
	}
	return obj, nil
}

// ensureStream stores a stream as an indirect object, reusing an existing
// object when an identical one was already stored.
func (b *builder) ensureStream(dict *pdf.Dict, data []byte) pdf.Ref {
	dict.Set("Length", pdf.Integer(len(data)))
	key := streamKey(data, dict, nil)
	if ref, ok := b.streamKeys[key]; ok {
		return ref
	}
	ref := b.nextRef()
	b.objects[ref] = pdf.NewStream(dict, data)
	b.streamKeys[key] = ref
	return ref
}

// annotations builds the Annots array for one page. Links whose target page
// is not in the document are dropped; volume extraction leaves such links
// behind deliberately.
func (b *builder) annotations(links []pdf.Link) pdf.Array {
	var arr pdf.Array
	for _, ln := range links {
		if ln.Target < 0 || ln.Target >= len(b.pageRefs) {
			continue
		}
		dict := pdf.NewDict()
		dict.Set("Type", pdf.Name("Annot"))
		dict.Set("Subtype", pdf.Name("Link"))
		dict.Set("Rect", rectArray(ln.Rect))
		dict.Set("Border", pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(0)})
		dict.Set("Dest", pdf.Array{b.pageRefs[ln.Target], pdf.Name("Fit")})
		ref := b.nextRef()
		b.objects[ref] = dict
		arr = append(arr, ref)
	}
	return arr
}

// buildOutlines links the bookmark items into a flat sibling chain under a
// single Outlines root and sets the page mode so viewers open the panel.
func (b *builder) buildOutlines(catalog *pdf.Dict) {
	items := make([]pdf.OutlineItem, 0, len(b.doc.Outlines))
	for _, it := range b.doc.Outlines {
		if it.Page >= 0 && it.Page < len(b.pageRefs) {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return
	}

	rootRef := b.nextRef()
	refs := make([]pdf.Ref, len(items))
	for i := range items {
		refs[i] = b.nextRef()
	}
	for i, it := range items {
		dict := pdf.NewDict()
		dict.Set("Title", pdf.String{Data: []byte(it.Title)})
		dict.Set("Parent", rootRef)
		dict.Set("Dest", pdf.Array{b.pageRefs[it.Page], pdf.Name("Fit")})
		if i > 0 {
			dict.Set("Prev", refs[i-1])
		}
		if i < len(items)-1 {
			dict.Set("Next", refs[i+1])
		}
		b.objects[refs[i]] = dict
	}

	root := pdf.NewDict()
	root.Set("Type", pdf.Name("Outlines"))
	root.Set("First", refs[0])
	root.Set("Last", refs[len(refs)-1])
	root.Set("Count", pdf.Integer(len(items)))
	b.objects[rootRef] = root

	catalog.Set("Outlines", rootRef)
	catalog.Set("PageMode", pdf.Name("UseOutlines"))
}

// pageLabelNums compacts the per-page label array into a number tree: runs
// of empty labels collapse into one lowercase-roman range (front matter),
// every labelled page gets its own literal prefix entry because the
// zero-padded section labels follow no PDF numbering style.
func pageLabelNums(labels []string, pageCount int) pdf.Array {
	if len(labels) == 0 {
		return nil
	}
	var nums pdf.Array
	inEmptyRun := false
	for i := 0; i < pageCount; i++ {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		if label == "" {
			if !inEmptyRun {
				entry := pdf.NewDict()
				entry.Set("S", pdf.Name("r"))
				nums = append(nums, pdf.Integer(i), entry)
				inEmptyRun = true
			}
			continue
		}
		inEmptyRun = false
		entry := pdf.NewDict()
		entry.Set("P", pdf.String{Data: []byte(label)})
		nums = append(nums, pdf.Integer(i), entry)
	}
	return nums
}

func (b *builder) buildInfo() {
	info := b.doc.Info
	if info == nil {
		return
	}
	dict := pdf.NewDict()
	set := func(key, val string) {
		if val != "" {
			dict.Set(key, pdf.String{Data: []byte(val)})
		}
	}
	set("Title", info.Title)
	set("Author", info.Author)
	set("Subject", info.Subject)
	set("Creator", info.Creator)
	set("Producer", info.Producer)
	if dict.Len() == 0 {
		return
	}
	ref := b.nextRef()
	b.objects[ref] = dict
	b.infoRef = &ref
}
