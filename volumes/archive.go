package volumes

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/writer"
)

// Package serializes every volume and writes a zip archive: the volume PDFs
// followed by a plain-text manifest listing the case reference, each
// volume's page range and its BLAKE2b-256 checksum. The context is checked
// per volume.
func Package(ctx context.Context, w io.Writer, doc *pdf.Document, vols []Volume, reference string, cfg writer.Config) error {
	type part struct {
		Volume
		name string
		sum  [blake2b.Size256]byte
	}

	zw := zip.NewWriter(w)
	parts := make([]part, 0, len(vols))
	for _, v := range vols {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := writer.Write(ctx, Extract(doc, v), &buf, cfg); err != nil {
			return fmt.Errorf("volume %d: %w", v.Number, err)
		}

		name := fmt.Sprintf("volume-%02d.pdf", v.Number)
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}
		if _, err := f.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}
		parts = append(parts, part{Volume: v, name: name, sum: blake2b.Sum256(buf.Bytes())})
	}

	mf, err := zw.Create("manifest.txt")
	if err != nil {
		return fmt.Errorf("archive manifest: %w", err)
	}
	if reference != "" {
		fmt.Fprintf(mf, "bundle: %s\n", reference)
	}
	total := 0
	for _, p := range parts {
		total += p.PageCount()
	}
	fmt.Fprintf(mf, "volumes: %d\ntotal pages: %d\n", len(parts), total)
	for _, p := range parts {
		fmt.Fprintf(mf, "\nvolume %d: %s\n  pages: %d-%d (%d pages)\n  blake2b-256: %x\n",
			p.Number, p.name, p.Start+1, p.End+1, p.PageCount(), p.sum)
	}
	return zw.Close()
}
