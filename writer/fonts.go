package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/edocket/bindery/filters"
	"github.com/edocket/bindery/pdf"
)

// ensureFont materializes a font placeholder as an indirect object graph.
// Faces are deduplicated twice: by pointer, then by content, because every
// call to the builtin constructors returns a fresh instance of the same face.
func (b *builder) ensureFont(f *pdf.Font) pdf.Ref {
	if ref, ok := b.fontRefs[f]; ok {
		return ref
	}
	key := fontKey(f)
	if ref, ok := b.fontKeys[key]; ok {
		b.fontRefs[f] = ref
		return ref
	}
	var ref pdf.Ref
	if len(f.Data) == 0 {
		ref = b.simpleFont(f)
	} else {
		ref = b.compositeFont(f)
	}
	b.fontRefs[f] = ref
	b.fontKeys[key] = ref
	return ref
}

// simpleFont emits a standard 14 face. No widths or descriptor: viewers
// carry the metrics for these.
func (b *builder) simpleFont(f *pdf.Font) pdf.Ref {
	base := f.BaseFont
	if base == "" {
		base = "Helvetica"
	}
	dict := pdf.NewDict()
	dict.Set("Type", pdf.Name("Font"))
	dict.Set("Subtype", pdf.Name("Type1"))
	dict.Set("BaseFont", pdf.Name(base))
	ref := b.nextRef()
	b.objects[ref] = dict
	return ref
}

// compositeFont emits an embedded TrueType program as a Type0/Identity-H
// composite: the glyph IDs the shaper produced double as CIDs.
func (b *builder) compositeFont(f *pdf.Font) pdf.Ref {
	base := f.BaseFont
	if base == "" {
		base = "Embedded"
	}

	ref := b.nextRef()
	dict := pdf.NewDict()
	dict.Set("Type", pdf.Name("Font"))
	dict.Set("Subtype", pdf.Name("Type0"))
	dict.Set("BaseFont", pdf.Name(base))
	dict.Set("Encoding", pdf.Name("Identity-H"))

	descRef := b.nextRef()
	desc := pdf.NewDict()
	desc.Set("Type", pdf.Name("Font"))
	desc.Set("Subtype", pdf.Name("CIDFontType2"))
	desc.Set("BaseFont", pdf.Name(base))
	csi := pdf.NewDict()
	csi.Set("Registry", pdf.String{Data: []byte("Adobe")})
	csi.Set("Ordering", pdf.String{Data: []byte("Identity")})
	csi.Set("Supplement", pdf.Integer(0))
	desc.Set("CIDSystemInfo", csi)
	dw := f.DefaultWidth
	if dw <= 0 {
		dw = 1000
	}
	desc.Set("DW", pdf.Integer(dw))
	if len(f.GlyphWidths) > 0 {
		desc.Set("W", encodeCIDWidths(f.GlyphWidths))
	}
	desc.Set("FontDescriptor", b.fontDescriptor(f, base))
	b.objects[descRef] = desc
	dict.Set("DescendantFonts", pdf.Array{descRef})

	if cmap := buildToUnicodeCMap(base, f.ToUnicode); cmap != nil {
		dict.Set("ToUnicode", b.rawStream(cmap, nil))
	}

	b.objects[ref] = dict
	return ref
}

func (b *builder) fontDescriptor(f *pdf.Font, base string) pdf.Ref {
	dict := pdf.NewDict()
	dict.Set("Type", pdf.Name("FontDescriptor"))
	dict.Set("FontName", pdf.Name(base))
	flags := f.Flags
	if flags == 0 {
		flags = 4
	}
	dict.Set("Flags", pdf.Integer(flags))
	dict.Set("ItalicAngle", pdf.Real(f.ItalicAngle))
	dict.Set("Ascent", pdf.Real(f.Ascent))
	dict.Set("Descent", pdf.Real(f.Descent))
	dict.Set("CapHeight", pdf.Real(f.CapHeight))
	dict.Set("StemV", pdf.Integer(80))
	dict.Set("FontBBox", pdf.Array{
		pdf.Real(f.BBox[0]), pdf.Real(f.BBox[1]),
		pdf.Real(f.BBox[2]), pdf.Real(f.BBox[3]),
	})

	length1 := len(f.Data)
	dict.Set("FontFile2", b.rawStream(f.Data, func(d *pdf.Dict) {
		d.Set("Length1", pdf.Integer(length1))
	}))

	ref := b.nextRef()
	b.objects[ref] = dict
	return ref
}

// rawStream stores data as an indirect stream, compressed when the config
// asks for it. extra may add entries to the stream dictionary.
func (b *builder) rawStream(data []byte, extra func(*pdf.Dict)) pdf.Ref {
	out := data
	var filter pdf.Object
	if b.cfg.Compress && len(data) > 0 {
		out = filters.FlateEncode(data)
		filter = pdf.Name("FlateDecode")
	}
	dict := pdf.NewDict()
	dict.Set("Length", pdf.Integer(len(out)))
	if filter != nil {
		dict.Set("Filter", filter)
	}
	if extra != nil {
		extra(dict)
	}
	ref := b.nextRef()
	b.objects[ref] = pdf.NewStream(dict, out)
	return ref
}

// encodeCIDWidths compacts the glyph advance map into W array triplets,
// merging runs of consecutive glyphs that share a width.
func encodeCIDWidths(widths map[uint16]int) pdf.Array {
	codes := make([]int, 0, len(widths))
	for c := range widths {
		codes = append(codes, int(c))
	}
	sort.Ints(codes)

	var arr pdf.Array
	start, prev := codes[0], codes[0]
	current := widths[uint16(codes[0])]
	for _, code := range codes[1:] {
		w := widths[uint16(code)]
		if w == current && code == prev+1 {
			prev = code
			continue
		}
		arr = append(arr, pdf.Integer(start), pdf.Integer(prev), pdf.Integer(current))
		start, prev, current = code, code, w
	}
	arr = append(arr, pdf.Integer(start), pdf.Integer(prev), pdf.Integer(current))
	return arr
}

// buildToUnicodeCMap renders the glyph-to-rune map as a bfchar CMap so text
// extraction and copy/paste survive the Identity-H encoding.
func buildToUnicodeCMap(base string, toUnicode map[uint16]rune) []byte {
	if len(toUnicode) == 0 {
		return nil
	}
	cids := make([]int, 0, len(toUnicode))
	for cid := range toUnicode {
		cids = append(cids, int(cid))
	}
	sort.Ints(cids)

	name := base
	if name == "" {
		name = "ToUnicode"
	}
	name = strings.ReplaceAll(name, " ", "") + "-UTF16"

	var buf bytes.Buffer
	buf.WriteString("/CIDInit /ProcSet findresource begin\n")
	buf.WriteString("12 dict begin\n")
	buf.WriteString("begincmap\n")
	buf.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> def\n")
	fmt.Fprintf(&buf, "/CMapName /%s def\n", name)
	buf.WriteString("/CMapType 2 def\n")
	buf.WriteString("1 begincodespacerange\n")
	fmt.Fprintf(&buf, "<%04X> <%04X>\n", cids[0], cids[len(cids)-1])
	buf.WriteString("endcodespacerange\n")
	for i := 0; i < len(cids); {
		chunk := len(cids) - i
		if chunk > 100 {
			chunk = 100
		}
		fmt.Fprintf(&buf, "%d beginbfchar\n", chunk)
		for j := 0; j < chunk; j++ {
			cid := cids[i+j]
			fmt.Fprintf(&buf, "<%04X> <%s>\n", cid, utf16Hex(toUnicode[uint16(cid)]))
		}
		buf.WriteString("endbfchar\n")
		i += chunk
	}
	buf.WriteString("endcmap\n")
	buf.WriteString("CMapName currentdict /CMap defineresource pop\n")
	buf.WriteString("end\nend\n")
	return buf.Bytes()
}

func utf16Hex(r rune) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune{r}) {
		fmt.Fprintf(&b, "%04X", u)
	}
	return b.String()
}
