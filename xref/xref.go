// Package xref locates and parses cross-reference data: classic tables,
// cross-reference streams, hybrid files carrying both, and Prev chains
// across incremental updates. When no usable table exists the file can be
// rebuilt by scanning for object headers.
package xref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/edocket/bindery/filters"
	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/scanner"
)

const (
	kindTable   = "table"
	kindStream  = "xref-stream"
	kindRebuilt = "rebuilt"
)

type entry struct {
	offset    int64
	gen       int
	inStream  bool
	streamNum int
	streamIdx int
}

// Table maps object numbers to file offsets or object-stream slots.
// Trailer is the newest trailer dictionary of the chain.
type Table struct {
	entries map[int]entry
	kind    string

	Trailer *pdf.Dict
}

// Lookup reports the file offset and generation of an object stored
// directly in the file. Objects living in object streams report !found.
func (t *Table) Lookup(objNum int) (offset int64, gen int, found bool) {
	e, ok := t.entries[objNum]
	if !ok || e.inStream {
		return 0, 0, false
	}
	return e.offset, e.gen, true
}

// ObjStream reports the container stream and slot index for an object
// stored in an object stream.
func (t *Table) ObjStream(objNum int) (streamNum, idx int, found bool) {
	e, ok := t.entries[objNum]
	if !ok || !e.inStream {
		return 0, 0, false
	}
	return e.streamNum, e.streamIdx, true
}

// Objects lists known object numbers in ascending order.
func (t *Table) Objects() []int {
	out := make([]int, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Type reports how the newest section was stored: "table", "xref-stream"
// or "rebuilt".
func (t *Table) Type() string { return t.kind }

func (t *Table) add(num int, e entry) {
	// Newer sections are parsed first and win.
	if _, ok := t.entries[num]; !ok {
		t.entries[num] = e
	}
}

type Config struct {
	// MaxDepth caps the Prev chain length. Zero means 32.
	MaxDepth int
	// Repair enables the salvage scan when no usable table is found.
	Repair bool
}

// Resolver locates cross-reference data in a file. A Resolver is good for
// one Resolve call's worth of state (trailer, linearization flag).
type Resolver struct {
	cfg        Config
	pipeline   *filters.Pipeline
	linearized bool
	trailer    *pdf.Dict
}

func NewResolver(cfg Config) *Resolver {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 32
	}
	return &Resolver{cfg: cfg, pipeline: filters.NewDefaultPipeline(filters.Limits{})}
}

// Linearized reports whether the last resolved file carried a
// linearization dictionary.
func (r *Resolver) Linearized() bool { return r.linearized }

// Trailer returns the newest trailer of the last resolved file.
func (r *Resolver) Trailer() *pdf.Dict { return r.trailer }

// Resolve parses the cross-reference chain of src. With Repair set, a file
// whose chain is missing or broken is rebuilt instead of failing.
func (r *Resolver) Resolve(ctx context.Context, src io.ReaderAt) (*Table, error) {
	table, err := r.resolve(ctx, src)
	if err != nil && r.cfg.Repair {
		table, err = Rebuild(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	r.trailer = table.Trailer
	return table, nil
}

func (r *Resolver) resolve(ctx context.Context, src io.ReaderAt) (*Table, error) {
	s := scanner.New(src, scanner.Config{})
	size := s.Size()
	if size == 0 {
		return nil, errors.New("xref: empty file")
	}

	r.linearized = detectLinearized(s)

	start, err := findStartXRef(s, size)
	if err != nil {
		return nil, err
	}

	table := &Table{entries: make(map[int]entry)}
	type section struct {
		offset int64
		hybrid bool
	}
	queue := []section{{offset: start}}
	seen := make(map[int64]bool)
	depth := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sec := queue[0]
		queue = queue[1:]
		if seen[sec.offset] {
			continue
		}
		seen[sec.offset] = true
		depth++
		if depth > r.cfg.MaxDepth {
			return nil, errors.New("xref: prev chain too deep")
		}
		if sec.offset <= 0 || sec.offset >= size {
			return nil, fmt.Errorf("xref: offset out of range: %d", sec.offset)
		}

		trailer, secKind, err := r.parseSection(ctx, s, sec.offset, table)
		if err != nil {
			return nil, err
		}
		if table.kind == "" {
			table.kind = secKind
		}
		if table.Trailer == nil {
			table.Trailer = trailer
		}
		// hybrid sections point at an equivalent xref stream; sections found
		// through it must not recurse further
		if !sec.hybrid {
			if v, ok := trailer.Int("XRefStm"); ok {
				queue = append(queue, section{offset: v, hybrid: true})
			}
			if v, ok := trailer.Int("Prev"); ok {
				queue = append(queue, section{offset: v})
			}
		}
	}

	if err := validateSize(table); err != nil {
		return nil, err
	}
	return table, nil
}

// parseSection dispatches on what sits at offset: the "xref" keyword opens
// a classic table, an object header opens a cross-reference stream.
func (r *Resolver) parseSection(ctx context.Context, s *scanner.Scanner, offset int64, table *Table) (*pdf.Dict, string, error) {
	if err := s.SeekTo(offset); err != nil {
		return nil, "", err
	}
	ts := pdf.NewTokens(s)
	tok, err := ts.Next()
	if err != nil {
		return nil, "", fmt.Errorf("xref: section at %d: %w", offset, err)
	}
	if tok.Type == scanner.TokenKeyword && tok.Str == "xref" {
		trailer, err := parseClassic(ts, table)
		return trailer, kindTable, err
	}
	if tok.Type == scanner.TokenNumber && tok.IsInt {
		trailer, err := r.parseStreamSection(ctx, s, ts, table)
		return trailer, kindStream, err
	}
	return nil, "", fmt.Errorf("xref: no table at offset %d", offset)
}

// parseClassic reads subsections until the trailer keyword, then the
// trailer dictionary.
func parseClassic(ts *pdf.Tokens, table *Table) (*pdf.Dict, error) {
	for {
		tok, err := ts.Next()
		if err != nil {
			return nil, fmt.Errorf("xref: truncated table: %w", err)
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "trailer" {
			obj, err := pdf.ParseObject(ts)
			if err != nil {
				return nil, fmt.Errorf("xref: trailer: %w", err)
			}
			dict, ok := obj.(*pdf.Dict)
			if !ok {
				return nil, errors.New("xref: trailer is not a dictionary")
			}
			return dict, nil
		}
		if tok.Type != scanner.TokenNumber || !tok.IsInt {
			return nil, fmt.Errorf("xref: bad subsection header %q", tok.Str)
		}
		start := int(tok.Int)
		countTok, err := ts.Next()
		if err != nil || countTok.Type != scanner.TokenNumber || !countTok.IsInt {
			return nil, errors.New("xref: bad subsection count")
		}
		count := int(countTok.Int)
		for i := 0; i < count; i++ {
			offTok, err := ts.Next()
			if err != nil || offTok.Type != scanner.TokenNumber {
				return nil, errors.New("xref: bad entry offset")
			}
			genTok, err := ts.Next()
			if err != nil || genTok.Type != scanner.TokenNumber {
				return nil, errors.New("xref: bad entry generation")
			}
			useTok, err := ts.Next()
			if err != nil || useTok.Type != scanner.TokenKeyword {
				return nil, errors.New("xref: bad entry marker")
			}
			switch useTok.Str {
			case "n":
				table.add(start+i, entry{offset: offTok.Int, gen: int(genTok.Int)})
			case "f":
				// free entry
			default:
				return nil, fmt.Errorf("xref: bad entry marker %q", useTok.Str)
			}
		}
	}
}

// parseStreamSection reads a cross-reference stream. The opening object
// number token has already been consumed.
func (r *Resolver) parseStreamSection(ctx context.Context, s *scanner.Scanner, ts *pdf.Tokens, table *Table) (*pdf.Dict, error) {
	genTok, err := ts.Next()
	if err != nil || genTok.Type != scanner.TokenNumber {
		return nil, errors.New("xref: bad stream object header")
	}
	objTok, err := ts.Next()
	if err != nil || objTok.Type != scanner.TokenKeyword || objTok.Str != "obj" {
		return nil, errors.New("xref: bad stream object header")
	}
	obj, err := pdf.ParseObject(ts)
	if err != nil {
		return nil, fmt.Errorf("xref: stream dictionary: %w", err)
	}
	dict, ok := obj.(*pdf.Dict)
	if !ok {
		return nil, errors.New("xref: stream object is not a dictionary")
	}
	if typ, _ := dict.NameVal("Type"); typ != "XRef" {
		return nil, fmt.Errorf("xref: stream has type %q", typ)
	}
	data, err := readStreamData(s, ts, dict)
	if err != nil {
		return nil, err
	}
	names, params := filters.ExtractChain(dict)
	decoded, err := r.pipeline.Decode(ctx, data, names, params)
	if err != nil {
		return nil, fmt.Errorf("xref: decode stream: %w", err)
	}
	if err := parseStreamEntries(decoded, dict, table); err != nil {
		return nil, err
	}
	return dict, nil
}

// readStreamData positions past the stream keyword and returns Length raw
// bytes. Length must be direct in a cross-reference stream.
func readStreamData(s *scanner.Scanner, ts *pdf.Tokens, dict *pdf.Dict) ([]byte, error) {
	kw, err := ts.Next()
	if err != nil || kw.Type != scanner.TokenKeyword || kw.Str != "stream" {
		return nil, errors.New("xref: stream keyword missing")
	}
	length, ok := dict.Int("Length")
	if !ok {
		return nil, errors.New("xref: stream length missing")
	}
	pos := s.Pos()
	if head, err := s.ReadRange(pos, 2); err == nil {
		if head[0] == '\r' && head[1] == '\n' {
			pos += 2
		} else if head[0] == '\n' || head[0] == '\r' {
			pos++
		}
	} else if head, err := s.ReadRange(pos, 1); err == nil {
		if head[0] == '\n' || head[0] == '\r' {
			pos++
		}
	}
	return s.ReadRange(pos, length)
}

func parseStreamEntries(decoded []byte, dict *pdf.Dict, table *Table) error {
	wArr, ok := dict.ArrayVal("W")
	if !ok || len(wArr) != 3 {
		return errors.New("xref: stream W missing")
	}
	var w [3]int
	for i, o := range wArr {
		v, ok := pdf.Numeric(o)
		if !ok || v < 0 || v > 8 {
			return errors.New("xref: stream W malformed")
		}
		w[i] = int(v)
	}
	entryLen := w[0] + w[1] + w[2]
	if entryLen == 0 {
		return errors.New("xref: stream W empty")
	}

	size, ok := dict.Int("Size")
	if !ok {
		return errors.New("xref: stream Size missing")
	}
	index := []int{0, int(size)}
	if idxArr, ok := dict.ArrayVal("Index"); ok {
		index = index[:0]
		for _, o := range idxArr {
			v, ok := pdf.Numeric(o)
			if !ok {
				return errors.New("xref: stream Index malformed")
			}
			index = append(index, int(v))
		}
		if len(index)%2 != 0 {
			return errors.New("xref: stream Index malformed")
		}
	}

	pos := 0
	for i := 0; i < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for k := 0; k < count; k++ {
			if pos+entryLen > len(decoded) {
				return errors.New("xref: stream data short")
			}
			f1 := readField(decoded[pos:pos+w[0]], 1)
			f2 := readField(decoded[pos+w[0]:pos+w[0]+w[1]], 0)
			f3 := readField(decoded[pos+w[0]+w[1]:pos+entryLen], 0)
			pos += entryLen

			num := start + k
			switch f1 {
			case 0:
				// free
			case 1:
				table.add(num, entry{offset: f2, gen: int(f3)})
			case 2:
				table.add(num, entry{inStream: true, streamNum: int(f2), streamIdx: int(f3)})
			}
		}
	}
	return nil
}

// readField decodes a big-endian field; zero-width fields take the default.
func readField(b []byte, def int64) int64 {
	if len(b) == 0 {
		return def
	}
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// findStartXRef locates the last startxref marker near the end of file.
func findStartXRef(s *scanner.Scanner, size int64) (int64, error) {
	tailLen := int64(2048)
	if tailLen > size {
		tailLen = size
	}
	tailOff := size - tailLen
	tail, err := s.ReadRange(tailOff, tailLen)
	if err != nil {
		return 0, err
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("xref: startxref not found")
	}
	if err := s.SeekTo(tailOff + int64(idx)); err != nil {
		return 0, err
	}
	ts := pdf.NewTokens(s)
	if _, err := ts.Next(); err != nil {
		return 0, err
	}
	tok, err := ts.Next()
	if err != nil || tok.Type != scanner.TokenNumber || !tok.IsInt {
		return 0, errors.New("xref: startxref value malformed")
	}
	return tok.Int, nil
}

// detectLinearized checks the file head for a linearization dictionary,
// which must sit in the first kilobyte.
func detectLinearized(s *scanner.Scanner) bool {
	n := s.Size()
	if n > 1024 {
		n = 1024
	}
	head, err := s.ReadRange(0, n)
	if err != nil {
		return false
	}
	return bytes.Contains(head, []byte("/Linearized"))
}

// validateSize cross-checks the trailer Size claim against the entries
// actually found.
func validateSize(t *Table) error {
	if t.Trailer == nil {
		return errors.New("xref: no trailer found")
	}
	size, ok := t.Trailer.Int("Size")
	if !ok {
		return errors.New("xref: trailer Size missing")
	}
	maxNum := 0
	for num := range t.entries {
		if num > maxNum {
			maxNum = num
		}
	}
	if int64(maxNum) >= size {
		return fmt.Errorf("xref: trailer Size %d but object %d present", size, maxNum)
	}
	return nil
}
