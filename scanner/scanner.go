// Package scanner tokenizes PDF object syntax. It buffers the source in
// fixed-size windows so callers can seek freely (xref offsets jump around)
// without re-reading from the start.
package scanner

import (
	"errors"
	"io"
	"strconv"
)

type TokenType int

const (
	TokenDictOpen   TokenType = iota // <<
	TokenDictClose                   // >>
	TokenArrayOpen                   // [
	TokenArrayClose                  // ]
	TokenName                        // /Name
	TokenNumber                      // integer or real
	TokenString                      // literal or hex string
	TokenBoolean                     // true / false
	TokenNull                        // null
	TokenKeyword                     // obj, endobj, stream, R, trailer, ...
)

// Token carries the payload in the field matching its type: Str for names
// and keywords, Bytes/Hex for strings, Int/Real/IsInt for numbers, Bool
// for booleans. Pos is the byte offset of the token's first character.
type Token struct {
	Type  TokenType
	Pos   int64
	Str   string
	Bytes []byte
	Hex   bool
	Int   int64
	Real  float64
	IsInt bool
	Bool  bool
}

type Config struct {
	// MaxStringLen caps string token payloads. Zero means 16 MiB.
	MaxStringLen int
	// WindowSize is the read chunk size. Zero means 64 KiB.
	WindowSize int
}

type Scanner struct {
	r      io.ReaderAt
	data   []byte
	pos    int64
	eof    bool
	chunk  int
	maxStr int
}

func New(r io.ReaderAt, cfg Config) *Scanner {
	chunk := cfg.WindowSize
	if chunk <= 0 {
		chunk = 64 * 1024
	}
	maxStr := cfg.MaxStringLen
	if maxStr <= 0 {
		maxStr = 16 << 20
	}
	return &Scanner{r: r, chunk: chunk, maxStr: maxStr}
}

// Pos reports the offset the next token would be read from.
func (s *Scanner) Pos() int64 { return s.pos }

// SeekTo repositions the scanner at an absolute offset.
func (s *Scanner) SeekTo(off int64) error {
	if off < 0 {
		return errors.New("scanner: seek before start")
	}
	if err := s.ensure(off); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if off > int64(len(s.data)) {
		return errors.New("scanner: seek past end")
	}
	s.pos = off
	return nil
}

// ReadRange returns the raw bytes [off, off+n). Stream payloads are read
// this way, bypassing tokenization.
func (s *Scanner) ReadRange(off, n int64) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("scanner: negative range")
	}
	if err := s.ensure(off + n - 1); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if off+n > int64(len(s.data)) {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	copy(out, s.data[off:off+n])
	return out, nil
}

// Size returns the total source length, forcing a full read.
func (s *Scanner) Size() int64 {
	for !s.eof {
		if err := s.loadMore(); err != nil {
			break
		}
	}
	return int64(len(s.data))
}

func (s *Scanner) Next() (Token, error) {
	if err := s.skipFiller(); err != nil {
		return Token{}, err
	}
	start := s.pos
	c := s.data[s.pos]
	switch c {
	case '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return Token{Type: TokenDictOpen, Pos: start}, nil
		}
		return s.scanHexString(start)
	case '>':
		if s.peek(1) == '>' {
			s.pos += 2
			return Token{Type: TokenDictClose, Pos: start}, nil
		}
		s.pos++
		return Token{Type: TokenKeyword, Str: ">", Pos: start}, nil
	case '[':
		s.pos++
		return Token{Type: TokenArrayOpen, Pos: start}, nil
	case ']':
		s.pos++
		return Token{Type: TokenArrayClose, Pos: start}, nil
	case '(':
		return s.scanLiteralString(start)
	case '/':
		return s.scanName(start)
	}
	if numberStart(c) {
		return s.scanNumber(start)
	}
	if alpha(c) {
		return s.scanKeyword(start)
	}
	s.pos++
	return Token{Type: TokenKeyword, Str: string(c), Pos: start}, nil
}

// skipFiller advances past whitespace and comments, leaving pos on a token
// byte or returning io.EOF.
func (s *Scanner) skipFiller() error {
	for {
		if err := s.ensure(s.pos); err != nil {
			return err
		}
		c := s.data[s.pos]
		if whitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for {
				s.pos++
				if err := s.ensure(s.pos); err != nil {
					return err
				}
				if s.data[s.pos] == '\n' || s.data[s.pos] == '\r' {
					break
				}
			}
			continue
		}
		return nil
	}
}

func (s *Scanner) scanName(start int64) (Token, error) {
	s.pos++
	var out []byte
	for {
		if err := s.ensure(s.pos); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Token{}, err
		}
		c := s.data[s.pos]
		if whitespace(c) || delimiter(c) {
			break
		}
		if c == '#' {
			s.pos++
			hi := s.hexNibble()
			lo := s.hexNibble()
			out = append(out, hi<<4|lo)
			continue
		}
		out = append(out, c)
		s.pos++
	}
	return Token{Type: TokenName, Str: string(out), Pos: start}, nil
}

func (s *Scanner) hexNibble() byte {
	if s.ensure(s.pos) != nil {
		return 0
	}
	c := s.data[s.pos]
	s.pos++
	return hexVal(c)
}

func (s *Scanner) scanNumber(start int64) (Token, error) {
	var out []byte
	for {
		if err := s.ensure(s.pos); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Token{}, err
		}
		c := s.data[s.pos]
		if !numberByte(c) {
			break
		}
		out = append(out, c)
		s.pos++
	}
	text := string(out)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Token{Type: TokenNumber, Int: i, IsInt: true, Pos: start}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, errors.New("scanner: malformed number " + strconv.Quote(text))
	}
	return Token{Type: TokenNumber, Real: f, Pos: start}, nil
}

func (s *Scanner) scanKeyword(start int64) (Token, error) {
	var out []byte
	for {
		if err := s.ensure(s.pos); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Token{}, err
		}
		c := s.data[s.pos]
		if !alpha(c) && !(c >= '0' && c <= '9') {
			break
		}
		out = append(out, c)
		s.pos++
	}
	switch string(out) {
	case "true":
		return Token{Type: TokenBoolean, Bool: true, Pos: start}, nil
	case "false":
		return Token{Type: TokenBoolean, Pos: start}, nil
	case "null":
		return Token{Type: TokenNull, Pos: start}, nil
	}
	return Token{Type: TokenKeyword, Str: string(out), Pos: start}, nil
}

func (s *Scanner) scanLiteralString(start int64) (Token, error) {
	s.pos++
	var out []byte
	depth := 1
	for {
		if err := s.ensure(s.pos); err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, errors.New("scanner: unterminated string")
			}
			return Token{}, err
		}
		c := s.data[s.pos]
		if c == '\\' {
			s.pos++
			if err := s.ensure(s.pos); err != nil {
				return Token{}, errors.New("scanner: unterminated string")
			}
			esc := s.data[s.pos]
			switch {
			case esc == '\r':
				// line continuation, swallow optional LF
				s.pos++
				if s.ensure(s.pos) == nil && s.data[s.pos] == '\n' {
					s.pos++
				}
			case esc == '\n':
				s.pos++
			case esc >= '0' && esc <= '7':
				val := int(esc - '0')
				s.pos++
				for k := 0; k < 2; k++ {
					if s.ensure(s.pos) != nil {
						break
					}
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val<<3 + int(d-'0')
					s.pos++
				}
				out = append(out, byte(val))
			default:
				out = append(out, unescape(esc))
				s.pos++
			}
			continue
		}
		if c == '(' {
			depth++
		}
		if c == ')' {
			depth--
			if depth == 0 {
				s.pos++
				break
			}
		}
		out = append(out, c)
		s.pos++
		if len(out) > s.maxStr {
			return Token{}, errors.New("scanner: string exceeds limit")
		}
	}
	return Token{Type: TokenString, Bytes: out, Pos: start}, nil
}

func (s *Scanner) scanHexString(start int64) (Token, error) {
	s.pos++
	var nibbles []byte
	for {
		if err := s.ensure(s.pos); err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, errors.New("scanner: unterminated hex string")
			}
			return Token{}, err
		}
		c := s.data[s.pos]
		if c == '>' {
			s.pos++
			break
		}
		if whitespace(c) {
			s.pos++
			continue
		}
		nibbles = append(nibbles, c)
		s.pos++
		if len(nibbles)/2 > s.maxStr {
			return Token{}, errors.New("scanner: string exceeds limit")
		}
	}
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, '0')
	}
	out := make([]byte, 0, len(nibbles)/2)
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, hexVal(nibbles[i])<<4|hexVal(nibbles[i+1]))
	}
	return Token{Type: TokenString, Bytes: out, Hex: true, Pos: start}, nil
}

func (s *Scanner) peek(ahead int64) byte {
	if s.ensure(s.pos+ahead) != nil {
		return 0
	}
	return s.data[s.pos+ahead]
}

func (s *Scanner) ensure(n int64) error {
	for int64(len(s.data)) <= n {
		if s.eof {
			return io.EOF
		}
		if err := s.loadMore(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) loadMore() error {
	buf := make([]byte, s.chunk)
	off := int64(len(s.data))
	n, err := s.r.ReadAt(buf, off)
	if n > 0 {
		s.data = append(s.data, buf[:n]...)
	}
	if err == io.EOF || n == 0 {
		s.eof = true
		return nil
	}
	return err
}

func whitespace(c byte) bool {
	switch c {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func delimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func numberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || c >= '0' && c <= '9'
}

func numberByte(c byte) bool {
	return c == '+' || c == '-' || c == '.' || c >= '0' && c <= '9'
}

func alpha(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	}
	return c
}
