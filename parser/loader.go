package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/edocket/bindery/filters"
	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/scanner"
	"github.com/edocket/bindery/xref"
)

// Loader reads indirect objects through the cross-reference table. Loads
// are cached; object streams are decoded once and all their contents
// memoized. Safe for concurrent use.
type Loader struct {
	src      io.ReaderAt
	table    *xref.Table
	pipeline *filters.Pipeline
	maxDepth int

	mu     sync.Mutex
	s      *scanner.Scanner
	cache  map[pdf.Ref]pdf.Object
	objstm map[int]map[int]pdf.Object
}

func NewLoader(src io.ReaderAt, table *xref.Table, limits filters.Limits, maxDepth int) *Loader {
	if maxDepth <= 0 {
		maxDepth = 32
	}
	return &Loader{
		src:      src,
		table:    table,
		pipeline: filters.NewDefaultPipeline(limits),
		maxDepth: maxDepth,
		cache:    make(map[pdf.Ref]pdf.Object),
		objstm:   make(map[int]map[int]pdf.Object),
	}
}

// Load returns the object behind ref.
func (l *Loader) Load(ctx context.Context, ref pdf.Ref) (pdf.Object, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if obj, ok := l.cache[ref]; ok {
		return obj, nil
	}
	obj, err := l.loadLocked(ctx, ref)
	if err != nil {
		return nil, err
	}
	l.cache[ref] = obj
	return obj, nil
}

// Resolve follows ref chains until a direct object surfaces.
func (l *Loader) Resolve(ctx context.Context, obj pdf.Object) (pdf.Object, error) {
	for depth := 0; depth < l.maxDepth; depth++ {
		ref, ok := obj.(pdf.Ref)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = l.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	return nil, errors.New("parser: reference chain too deep")
}

func (l *Loader) loadLocked(ctx context.Context, ref pdf.Ref) (pdf.Object, error) {
	offset, gen, found := l.table.Lookup(ref.Num)
	if found {
		if l.s == nil {
			l.s = scanner.New(l.src, scanner.Config{})
		}
		return l.loadAt(l.s, ref.Num, gen, offset)
	}
	if stmNum, _, ok := l.table.ObjStream(ref.Num); ok {
		return l.loadFromObjectStream(ctx, ref.Num, stmNum)
	}
	return nil, fmt.Errorf("parser: object %d %d not in xref", ref.Num, ref.Gen)
}

// loadAt parses "<num> <gen> obj <object>" at offset, attaching stream
// payloads when the object is a stream.
func (l *Loader) loadAt(s *scanner.Scanner, num, gen int, offset int64) (pdf.Object, error) {
	if err := s.SeekTo(offset); err != nil {
		return nil, err
	}
	ts := pdf.NewTokens(s)

	numTok, err := ts.Next()
	if err != nil {
		return nil, err
	}
	if numTok.Type != scanner.TokenNumber || !numTok.IsInt || int(numTok.Int) != num {
		return nil, fmt.Errorf("parser: object %d header number mismatch", num)
	}
	genTok, err := ts.Next()
	if err != nil {
		return nil, err
	}
	if genTok.Type != scanner.TokenNumber || !genTok.IsInt || int(genTok.Int) != gen {
		return nil, fmt.Errorf("parser: object %d header generation mismatch", num)
	}
	objTok, err := ts.Next()
	if err != nil {
		return nil, err
	}
	if objTok.Type != scanner.TokenKeyword || objTok.Str != "obj" {
		return nil, fmt.Errorf("parser: object %d missing obj keyword", num)
	}

	obj, err := pdf.ParseObject(ts)
	if err != nil {
		return nil, fmt.Errorf("parser: object %d: %w", num, err)
	}

	dict, ok := obj.(*pdf.Dict)
	if !ok {
		return obj, nil
	}
	kw, err := ts.Next()
	if err != nil {
		return dict, nil
	}
	if kw.Type != scanner.TokenKeyword || kw.Str != "stream" {
		ts.Unread(kw)
		return dict, nil
	}

	length, err := l.streamLength(dict)
	if err != nil {
		return nil, fmt.Errorf("parser: object %d: %w", num, err)
	}
	data, err := readStreamPayload(s, length)
	if err != nil {
		return nil, fmt.Errorf("parser: object %d stream: %w", num, err)
	}
	return pdf.NewStream(dict, data), nil
}

// streamLength reads Length, loading it through a private scanner when the
// value is indirect so the shared cursor is not disturbed.
func (l *Loader) streamLength(dict *pdf.Dict) (int64, error) {
	val, ok := dict.Get("Length")
	if !ok {
		return 0, errors.New("stream Length missing")
	}
	switch v := val.(type) {
	case pdf.Integer:
		return int64(v), nil
	case pdf.Ref:
		offset, gen, found := l.table.Lookup(v.Num)
		if !found {
			return 0, fmt.Errorf("length object %d missing", v.Num)
		}
		tmp := scanner.New(l.src, scanner.Config{})
		obj, err := l.loadAt(tmp, v.Num, gen, offset)
		if err != nil {
			return 0, err
		}
		n, ok := obj.(pdf.Integer)
		if !ok {
			return 0, fmt.Errorf("length object %d is not an integer", v.Num)
		}
		return int64(n), nil
	}
	return 0, errors.New("stream Length malformed")
}

// readStreamPayload skips the end-of-line after the stream keyword and
// returns length raw bytes.
func readStreamPayload(s *scanner.Scanner, length int64) ([]byte, error) {
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

// loadFromObjectStream decodes the container once and memoizes every
// object it holds.
func (l *Loader) loadFromObjectStream(ctx context.Context, num, stmNum int) (pdf.Object, error) {
	if objs, ok := l.objstm[stmNum]; ok {
		if obj, ok := objs[num]; ok {
			return obj, nil
		}
		return nil, fmt.Errorf("parser: object %d not in object stream %d", num, stmNum)
	}

	offset, gen, found := l.table.Lookup(stmNum)
	if !found {
		return nil, fmt.Errorf("parser: object stream %d not in xref", stmNum)
	}
	if l.s == nil {
		l.s = scanner.New(l.src, scanner.Config{})
	}
	container, err := l.loadAt(l.s, stmNum, gen, offset)
	if err != nil {
		return nil, err
	}
	st, ok := container.(*pdf.Stream)
	if !ok {
		return nil, fmt.Errorf("parser: object %d is not an object stream", stmNum)
	}
	typ, _ := st.Dict.NameVal("Type")
	if typ != "ObjStm" {
		return nil, fmt.Errorf("parser: object stream %d has type %q", stmNum, typ)
	}

	names, params := filters.ExtractChain(st.Dict)
	data, err := l.pipeline.Decode(ctx, st.Data, names, params)
	if err != nil {
		return nil, fmt.Errorf("parser: decode object stream %d: %w", stmNum, err)
	}

	n, _ := st.Dict.Int("N")
	first, _ := st.Dict.Int("First")
	if first > int64(len(data)) {
		return nil, fmt.Errorf("parser: object stream %d First past end", stmNum)
	}

	header := data[:first]
	body := data[first:]
	pairs, err := readObjStmHeader(header, int(n))
	if err != nil {
		return nil, fmt.Errorf("parser: object stream %d: %w", stmNum, err)
	}

	objs := make(map[int]pdf.Object, n)
	for i := 0; i < int(n); i++ {
		objNum, off := pairs[2*i], pairs[2*i+1]
		if off < 0 || off > len(body) {
			return nil, fmt.Errorf("parser: object stream %d offset out of range", stmNum)
		}
		sc := scanner.New(bytes.NewReader(body[off:]), scanner.Config{})
		obj, err := pdf.ParseObject(pdf.NewTokens(sc))
		if err != nil {
			return nil, fmt.Errorf("parser: object stream %d slot %d: %w", stmNum, i, err)
		}
		objs[objNum] = obj
	}
	l.objstm[stmNum] = objs

	if obj, ok := objs[num]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("parser: object %d not in object stream %d", num, stmNum)
}

func readObjStmHeader(header []byte, n int) ([]int, error) {
	sc := scanner.New(bytes.NewReader(header), scanner.Config{})
	pairs := make([]int, 0, 2*n)
	for len(pairs) < 2*n {
		tok, err := sc.Next()
		if err != nil {
			return nil, errors.New("header pair list short")
		}
		if tok.Type != scanner.TokenNumber || !tok.IsInt {
			continue
		}
		pairs = append(pairs, int(tok.Int))
	}
	return pairs, nil
}
