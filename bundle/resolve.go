package bundle

import (
	"bytes"
	"context"
	"runtime"
	"sync"

	"github.com/edocket/bindery/parser"
	"github.com/edocket/bindery/pdf"
)

// ResolvedDocument is a source document opened and reduced to the pages the
// bundle will use: the parsed source plus the ordered page indices into it.
type ResolvedDocument struct {
	Doc    *Document
	Source *pdf.Document
	Pages  []int
}

// PageCount returns the number of pages the document contributes.
func (r *ResolvedDocument) PageCount() int { return len(r.Pages) }

// SourceBytes returns the byte stream the document resolves to: the edited
// override when present, else the original upload.
func (d *Document) SourceBytes() []byte {
	if len(d.Edited) > 0 {
		return d.Edited
	}
	return d.Data
}

// PageSelection returns the ordered 0-based pages to take from the resolved
// source. The edited override always uses every page; an explicit selection
// applies only to the original upload and must be non-empty with every index
// inside the source.
func (d *Document) PageSelection(pageCount int) ([]int, error) {
	if len(d.Edited) == 0 && d.SelectedPages != nil {
		if len(d.SelectedPages) == 0 {
			return nil, &SubsetError{ID: d.ID, Name: d.DisplayTitle(), Index: -1, Pages: pageCount}
		}
		pages := make([]int, len(d.SelectedPages))
		for i, p := range d.SelectedPages {
			if p < 0 || p >= pageCount {
				return nil, &SubsetError{ID: d.ID, Name: d.DisplayTitle(), Index: p, Pages: pageCount}
			}
			pages[i] = p
		}
		return pages, nil
	}
	pages := make([]int, pageCount)
	for i := range pages {
		pages[i] = i
	}
	return pages, nil
}

// Resolve opens one document and applies the override precedence.
func Resolve(ctx context.Context, p *parser.Parser, doc *Document) (*ResolvedDocument, error) {
	src, err := p.Parse(ctx, bytes.NewReader(doc.SourceBytes()))
	if err != nil {
		return nil, &SourceError{ID: doc.ID, Name: doc.DisplayTitle(), Err: err}
	}
	pages, err := doc.PageSelection(src.PageCount())
	if err != nil {
		return nil, err
	}
	return &ResolvedDocument{Doc: doc, Source: src, Pages: pages}, nil
}

// ResolveAll resolves documents concurrently. Results keep input order; the
// first error aborts the wait and is returned.
func ResolveAll(ctx context.Context, p *parser.Parser, docs []*Document, workers int) ([]*ResolvedDocument, error) {
	out := make([]*ResolvedDocument, len(docs))
	if len(docs) == 0 {
		return out, nil
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	// Buffered channel as a semaphore to limit concurrency.
	sem := make(chan struct{}, workers)
	type result struct {
		idx int
		doc *ResolvedDocument
		err error
	}
	results := make(chan result, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc *Document) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- result{err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				results <- result{err: ctx.Err()}
				return
			default:
			}

			rd, err := Resolve(ctx, p, doc)
			results <- result{idx: i, doc: rd, err: err}
		}(i, doc)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		out[res.idx] = res.doc
	}
	return out, nil
}
