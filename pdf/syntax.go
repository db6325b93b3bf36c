package pdf

import (
	"errors"
	"fmt"

	"github.com/edocket/bindery/scanner"
)

// TokenSource yields tokens with pushback. The xref resolver and the object
// loader share this grammar instead of each carrying their own copy.
type TokenSource interface {
	Next() (scanner.Token, error)
	Unread(tok scanner.Token)
}

// Tokens adapts a Scanner into a TokenSource.
type Tokens struct {
	s   *scanner.Scanner
	buf []scanner.Token
}

func NewTokens(s *scanner.Scanner) *Tokens { return &Tokens{s: s} }

func (t *Tokens) Next() (scanner.Token, error) {
	if n := len(t.buf); n > 0 {
		tok := t.buf[n-1]
		t.buf = t.buf[:n-1]
		return tok, nil
	}
	return t.s.Next()
}

func (t *Tokens) Unread(tok scanner.Token) { t.buf = append(t.buf, tok) }

// Scanner returns the underlying scanner for raw reads and seeks.
func (t *Tokens) Scanner() *scanner.Scanner { return t.s }

const maxParseDepth = 64

// ParseObject reads one object. Indirect references ("n g R") are folded
// into Ref values via two-token lookahead. Keywords terminate parsing and
// surface as errors; callers consume structural keywords (obj, stream)
// themselves.
func ParseObject(ts TokenSource) (Object, error) {
	return parseObject(ts, 0)
}

func parseObject(ts TokenSource, depth int) (Object, error) {
	if depth > maxParseDepth {
		return nil, errors.New("pdf: object nesting too deep")
	}
	tok, err := ts.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenDictOpen:
		return parseDict(ts, depth+1)
	case scanner.TokenArrayOpen:
		return parseArray(ts, depth+1)
	case scanner.TokenName:
		return Name(tok.Str), nil
	case scanner.TokenString:
		return String{Data: tok.Bytes, Hex: tok.Hex}, nil
	case scanner.TokenBoolean:
		return Boolean(tok.Bool), nil
	case scanner.TokenNull:
		return Null{}, nil
	case scanner.TokenNumber:
		if !tok.IsInt {
			return Real(tok.Real), nil
		}
		return parseIntegerOrRef(ts, tok)
	}
	return nil, fmt.Errorf("pdf: unexpected token %q", tok.Str)
}

func parseIntegerOrRef(ts TokenSource, first scanner.Token) (Object, error) {
	second, err := ts.Next()
	if err != nil {
		return Integer(first.Int), nil
	}
	if second.Type != scanner.TokenNumber || !second.IsInt || second.Int < 0 {
		ts.Unread(second)
		return Integer(first.Int), nil
	}
	third, err := ts.Next()
	if err != nil {
		ts.Unread(second)
		return Integer(first.Int), nil
	}
	if third.Type == scanner.TokenKeyword && third.Str == "R" {
		return Ref{Num: int(first.Int), Gen: int(second.Int)}, nil
	}
	ts.Unread(third)
	ts.Unread(second)
	return Integer(first.Int), nil
}

func parseDict(ts TokenSource, depth int) (Object, error) {
	d := NewDict()
	for {
		tok, err := ts.Next()
		if err != nil {
			return nil, fmt.Errorf("pdf: unterminated dictionary: %w", err)
		}
		if tok.Type == scanner.TokenDictClose {
			return d, nil
		}
		if tok.Type != scanner.TokenName {
			return nil, fmt.Errorf("pdf: dictionary key must be a name, got %q", tok.Str)
		}
		val, err := parseObject(ts, depth)
		if err != nil {
			return nil, err
		}
		d.Set(tok.Str, val)
	}
}

func parseArray(ts TokenSource, depth int) (Object, error) {
	arr := Array{}
	for {
		tok, err := ts.Next()
		if err != nil {
			return nil, fmt.Errorf("pdf: unterminated array: %w", err)
		}
		if tok.Type == scanner.TokenArrayClose {
			return arr, nil
		}
		ts.Unread(tok)
		item, err := parseObject(ts, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}
