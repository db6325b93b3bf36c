package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/edocket/bindery/pdf"
)

// inherited carries the page attributes that flow down the page tree.
type inherited struct {
	resources *pdf.Dict
	mediaBox  *pdf.Rect
	cropBox   *pdf.Rect
	rotate    *int
}

// collectPages walks the page tree in reading order, building
// self-contained pages.
func (p *Parser) collectPages(ctx context.Context, l *Loader, catalog *pdf.Dict, doc *pdf.Document) error {
	pagesObj, ok := catalog.Get("Pages")
	if !ok {
		return errors.New("parser: catalog has no page tree")
	}
	root, err := l.Resolve(ctx, pagesObj)
	if err != nil {
		return err
	}
	rootDict, ok := root.(*pdf.Dict)
	if !ok {
		return errors.New("parser: page tree root is not a dictionary")
	}
	visited := make(map[pdf.Ref]bool)
	if ref, isRef := pagesObj.(pdf.Ref); isRef {
		visited[ref] = true
	}
	return p.walkPageNode(ctx, l, rootDict, inherited{}, visited, doc, 0)
}

func (p *Parser) walkPageNode(ctx context.Context, l *Loader, node *pdf.Dict, inh inherited, visited map[pdf.Ref]bool, doc *pdf.Document, depth int) error {
	if depth > 64 {
		return errors.New("parser: page tree too deep")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if res, ok := node.DictVal("Resources"); ok {
		inh.resources = res
	} else if obj, ok := node.Get("Resources"); ok {
		// indirect resources dictionary
		if resolved, err := l.Resolve(ctx, obj); err == nil {
			if d, ok := resolved.(*pdf.Dict); ok {
				inh.resources = d
			}
		}
	}
	if r, ok := rectAttr(ctx, l, node, "MediaBox"); ok {
		inh.mediaBox = r
	}
	if r, ok := rectAttr(ctx, l, node, "CropBox"); ok {
		inh.cropBox = r
	}
	if v, ok := node.Int("Rotate"); ok {
		rot := normalizeRotate(int(v))
		inh.rotate = &rot
	}

	typ, _ := node.NameVal("Type")
	switch typ {
	case "Pages":
		kids, ok := node.ArrayVal("Kids")
		if !ok {
			return errors.New("parser: pages node has no Kids")
		}
		for _, kid := range kids {
			if ref, isRef := kid.(pdf.Ref); isRef {
				if visited[ref] {
					continue
				}
				visited[ref] = true
			}
			obj, err := l.Resolve(ctx, kid)
			if err != nil {
				return fmt.Errorf("parser: page tree kid: %w", err)
			}
			kidDict, ok := obj.(*pdf.Dict)
			if !ok {
				continue
			}
			if err := p.walkPageNode(ctx, l, kidDict, inh, visited, doc, depth+1); err != nil {
				return err
			}
		}
		return nil
	case "Page":
		page, err := p.buildPage(ctx, l, node, inh)
		if err != nil {
			return err
		}
		doc.AddPage(page)
		return nil
	}
	return fmt.Errorf("parser: page tree node has type %q", typ)
}

func (p *Parser) buildPage(ctx context.Context, l *Loader, node *pdf.Dict, inh inherited) (*pdf.Page, error) {
	page := &pdf.Page{MediaBox: pdf.A4}
	if inh.mediaBox != nil {
		page.MediaBox = *inh.mediaBox
	}
	page.CropBox = inh.cropBox
	if inh.rotate != nil {
		page.Rotate = *inh.rotate
	}

	if err := p.collectContents(ctx, l, node, page); err != nil {
		return nil, err
	}

	resources := inh.resources
	if resources == nil {
		resources = pdf.NewDict()
	}
	resolved, err := p.resolveTree(ctx, l, resources, make(map[pdf.Ref]bool), 0)
	if err != nil {
		return nil, fmt.Errorf("parser: page resources: %w", err)
	}
	page.Resources = resolved.(*pdf.Dict)
	return page, nil
}

// collectContents gathers the page content streams, keeping the stored
// bytes and their filter chain untouched.
func (p *Parser) collectContents(ctx context.Context, l *Loader, node *pdf.Dict, page *pdf.Page) error {
	contentsObj, ok := node.Get("Contents")
	if !ok {
		return nil
	}
	resolved, err := l.Resolve(ctx, contentsObj)
	if err != nil {
		return fmt.Errorf("parser: page contents: %w", err)
	}

	var streams []pdf.Object
	switch v := resolved.(type) {
	case *pdf.Stream:
		streams = []pdf.Object{v}
	case pdf.Array:
		for _, item := range v {
			obj, err := l.Resolve(ctx, item)
			if err != nil {
				return fmt.Errorf("parser: page contents: %w", err)
			}
			streams = append(streams, obj)
		}
	default:
		return nil
	}

	for _, obj := range streams {
		st, ok := obj.(*pdf.Stream)
		if !ok {
			continue
		}
		content := pdf.Content{Data: st.Data}
		if f, ok := st.Dict.Get("Filter"); ok {
			content.Filter = f
		}
		if dp, ok := st.Dict.Get("DecodeParms"); ok {
			parms, err := p.resolveTree(ctx, l, dp, make(map[pdf.Ref]bool), 0)
			if err != nil {
				return err
			}
			content.DecodeParms = parms
		}
		page.Contents = append(page.Contents, content)
	}
	return nil
}

// resolveTree replaces every reference under obj with the loaded object so
// the result no longer depends on the source file. References on the
// current descent path resolve to null, cutting cycles while keeping
// shared (diamond) structure intact.
func (p *Parser) resolveTree(ctx context.Context, l *Loader, obj pdf.Object, path map[pdf.Ref]bool, depth int) (pdf.Object, error) {
	if depth > 64 {
		return nil, errors.New("resource tree too deep")
	}
	switch v := obj.(type) {
	case pdf.Ref:
		if path[v] {
			return pdf.Null{}, nil
		}
		loaded, err := l.Load(ctx, v)
		if err != nil {
			return nil, err
		}
		path[v] = true
		resolved, err := p.resolveTree(ctx, l, loaded, path, depth+1)
		delete(path, v)
		return resolved, err
	case *pdf.Dict:
		out := pdf.NewDict()
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			resolved, err := p.resolveTree(ctx, l, item, path, depth+1)
			if err != nil {
				return nil, err
			}
			out.Set(k, resolved)
		}
		return out, nil
	case pdf.Array:
		out := make(pdf.Array, len(v))
		for i, item := range v {
			resolved, err := p.resolveTree(ctx, l, item, path, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case *pdf.Stream:
		dictObj, err := p.resolveTree(ctx, l, v.Dict, path, depth+1)
		if err != nil {
			return nil, err
		}
		return pdf.NewStream(dictObj.(*pdf.Dict), v.Data), nil
	}
	return obj, nil
}

func rectAttr(ctx context.Context, l *Loader, node *pdf.Dict, key string) (*pdf.Rect, bool) {
	if r, ok := node.RectVal(key); ok {
		return &r, true
	}
	obj, ok := node.Get(key)
	if !ok {
		return nil, false
	}
	resolved, err := l.Resolve(ctx, obj)
	if err != nil {
		return nil, false
	}
	arr, ok := resolved.(pdf.Array)
	if !ok || len(arr) != 4 {
		return nil, false
	}
	var vals [4]float64
	for i, o := range arr {
		v, ok := pdf.Numeric(o)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return &pdf.Rect{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, true
}

func normalizeRotate(v int) int {
	v %= 360
	if v < 0 {
		v += 360
	}
	return v
}
