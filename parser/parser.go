// Package parser reads PDF files into the shared document model. It layers
// an object loader over the cross-reference table and walks the page tree,
// producing pages whose resources are fully resolved so they can be
// reassembled into new files.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/edocket/bindery/filters"
	"github.com/edocket/bindery/observability"
	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/xref"
)

var (
	// ErrNotPDF marks input without a PDF header.
	ErrNotPDF = errors.New("parser: not a pdf file")
	// ErrEncrypted marks encrypted input, which this engine does not open.
	ErrEncrypted = errors.New("parser: file is encrypted")
)

type Config struct {
	XRef   xref.Config
	Limits filters.Limits
	// MaxDepth caps reference chains and tree descents. Zero means 32.
	MaxDepth int
	Logger   observability.Logger
}

type Parser struct {
	cfg Config
	log observability.Logger
}

func New(cfg Config) *Parser {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &Parser{cfg: cfg, log: cfg.Logger}
}

// Parse reads one PDF into the document model.
func (p *Parser) Parse(ctx context.Context, src io.ReaderAt) (*pdf.Document, error) {
	version := headerVersion(src)
	if version == "" {
		return nil, ErrNotPDF
	}

	resolver := xref.NewResolver(p.cfg.XRef)
	table, err := resolver.Resolve(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parser: resolve xref: %w", err)
	}
	if _, ok := table.Trailer.Get("Encrypt"); ok {
		return nil, ErrEncrypted
	}

	loader := NewLoader(src, table, p.cfg.Limits, p.cfg.MaxDepth)

	rootObj, ok := table.Trailer.Get("Root")
	if !ok {
		return nil, errors.New("parser: trailer has no Root")
	}
	catalogObj, err := loader.Resolve(ctx, rootObj)
	if err != nil {
		return nil, fmt.Errorf("parser: load catalog: %w", err)
	}
	catalog, ok := catalogObj.(*pdf.Dict)
	if !ok {
		return nil, errors.New("parser: catalog is not a dictionary")
	}

	doc := &pdf.Document{}
	if err := p.collectPages(ctx, loader, catalog, doc); err != nil {
		return nil, err
	}
	p.readInfo(ctx, loader, table.Trailer, doc)

	p.log.Debug("parsed document",
		observability.String("version", version),
		observability.Int("pages", doc.PageCount()),
		observability.String("xref", table.Type()))
	return doc, nil
}

// readInfo copies the information dictionary when present. Failures leave
// the document without metadata rather than failing the parse.
func (p *Parser) readInfo(ctx context.Context, l *Loader, trailer *pdf.Dict, doc *pdf.Document) {
	infoObj, ok := trailer.Get("Info")
	if !ok {
		return
	}
	resolved, err := l.Resolve(ctx, infoObj)
	if err != nil {
		return
	}
	dict, ok := resolved.(*pdf.Dict)
	if !ok {
		return
	}
	info := &pdf.Info{}
	set := func(key string, dst *string) {
		if obj, ok := dict.Get(key); ok {
			if s, ok := obj.(pdf.String); ok {
				*dst = string(s.Data)
			}
		}
	}
	set("Title", &info.Title)
	set("Author", &info.Author)
	set("Subject", &info.Subject)
	set("Creator", &info.Creator)
	set("Producer", &info.Producer)
	doc.Info = info
}

func headerVersion(src io.ReaderAt) string {
	buf := make([]byte, 64)
	n, err := src.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	line := string(buf[:n])
	for _, sep := range []string{"\r\n", "\n", "\r"} {
		if idx := strings.Index(line, sep); idx >= 0 {
			line = line[:idx]
			break
		}
	}
	if strings.HasPrefix(line, "%PDF-") && len(line) >= 8 {
		return strings.TrimSpace(line[5:])
	}
	return ""
}
