package xref_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/edocket/bindery/xref"
)

func TestResolverRepairsMissingStartXRef(t *testing.T) {
	// No xref table, no startxref, just objects and a trailer.
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")

	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	off2 := buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Count 0 >>\nendobj\n")

	buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	buf.WriteString("%%EOF\n")
	data := buf.Bytes()

	resolver := xref.NewResolver(xref.Config{})
	if _, err := resolver.Resolve(context.Background(), bytes.NewReader(data)); err == nil {
		t.Fatal("expected error on missing startxref")
	}

	resolver = xref.NewResolver(xref.Config{Repair: true})
	table, err := resolver.Resolve(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if table.Type() != "rebuilt" {
		t.Fatalf("table type = %s, want rebuilt", table.Type())
	}
	if off, _, ok := table.Lookup(1); !ok || off != int64(off1) {
		t.Errorf("object 1: got %d ok=%v, want %d", off, ok, off1)
	}
	if off, _, ok := table.Lookup(2); !ok || off != int64(off2) {
		t.Errorf("object 2: got %d ok=%v, want %d", off, ok, off2)
	}
	if root, ok := table.Trailer.RefVal("Root"); !ok || root.Num != 1 {
		t.Errorf("rebuilt trailer Root = %+v", root)
	}
}

func TestRebuildSkipsGarbagePrefix(t *testing.T) {
	// "999 1 0 obj": the leading number is junk, the object must still be
	// found via backtracking.
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")
	buf.WriteString("999 ")
	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< >>\nendobj\n")
	buf.WriteString("trailer\n<< /Size 2 /Root 1 0 R >>\n%%EOF\n")

	table, err := xref.Rebuild(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if off, _, ok := table.Lookup(1); !ok || off != int64(off1) {
		t.Errorf("object 1: got %d, want %d", off, off1)
	}
}

func TestRebuildLastDefinitionWins(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")
	buf.WriteString("1 0 obj\n<< /Rev 1 >>\nendobj\n")
	off2 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Rev 2 >>\nendobj\n")
	buf.WriteString("%%EOF\n")

	table, err := xref.Rebuild(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if off, _, ok := table.Lookup(1); !ok || off != int64(off2) {
		t.Errorf("object 1: got %d, want later offset %d", off, off2)
	}
	if size, ok := table.Trailer.Int("Size"); !ok || size < 2 {
		t.Errorf("synthesized Size = %d", size)
	}
}
