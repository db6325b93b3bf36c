// Package writer serializes the document model to PDF bytes: one object per
// content stream, a classic cross-reference table, fonts materialized from
// their resource placeholders, and the navigation structure the assembler
// attached (link annotations, outline chain, page labels).
package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/edocket/bindery/pdf"
)

// Config controls serialization.
type Config struct {
	// Compress flate-encodes generated content streams and embedded font
	// programs. Imported streams keep the filters they arrived with.
	Compress bool
	// Deterministic derives the file identifier from the written bytes
	// instead of random data, so identical documents serialize to
	// identical files.
	Deterministic bool
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config { return Config{Compress: true, Deterministic: true} }

// Write serializes doc to w. Links and outline items whose target page does
// not exist in doc are dropped; everything else round-trips.
func Write(ctx context.Context, doc *pdf.Document, w io.Writer, cfg Config) error {
	if doc == nil || len(doc.Pages) == 0 {
		return errors.New("writer: document has no pages")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b := newBuilder(doc, cfg)
	if err := b.build(ctx); err != nil {
		return err
	}
	return b.serialize(w)
}

// serialize lays out the file: header, objects in number order, xref table,
// trailer. Offsets are recorded as objects are written.
func (b *builder) serialize(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	ordered := make([]pdf.Ref, 0, len(b.objects))
	for ref := range b.objects {
		ordered = append(ordered, ref)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Num < ordered[j].Num })

	offsets := make(map[int]int, len(ordered))
	for _, ref := range ordered {
		offsets[ref.Num] = buf.Len()
		fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
		buf.Write(pdf.Serialize(b.objects[ref]))
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := buf.Len()
	maxNum := ordered[len(ordered)-1].Num
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= maxNum; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	id, err := fileID(buf.Bytes(), b.cfg.Deterministic)
	if err != nil {
		return fmt.Errorf("writer: file id: %w", err)
	}
	trailer := pdf.NewDict()
	trailer.Set("Size", pdf.Integer(maxNum+1))
	trailer.Set("Root", b.catalogRef)
	if b.infoRef != nil {
		trailer.Set("Info", *b.infoRef)
	}
	trailer.Set("ID", pdf.Array{
		pdf.String{Data: id[0], Hex: true},
		pdf.String{Data: id[1], Hex: true},
	})
	buf.WriteString("trailer\n")
	buf.Write(pdf.Serialize(trailer))
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	_, err = w.Write(buf.Bytes())
	return err
}
