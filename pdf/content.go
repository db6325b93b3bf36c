package pdf

import (
	"bytes"
	"math"
	"strconv"
)

// Operation is one content-stream operator with its operands.
type Operation struct {
	Op   string
	Args []Object
}

// SerializeOps renders operations as content-stream bytes.
func SerializeOps(ops []Operation) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		for i, arg := range op.Args {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(&buf, arg)
		}
		if len(op.Args) > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Op)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// FormatNumber renders a float in PDF number syntax. PDF forbids exponent
// notation, so this never falls back to %g.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = trimZeros(s)
	return s
}

func trimZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}

// EscapeString renders a literal string with the escapes PDF requires;
// non-ASCII bytes become octal escapes.
func EscapeString(data []byte) []byte {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, ch := range data {
		switch ch {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		case '\b':
			b.WriteString("\\b")
		case '\f':
			b.WriteString("\\f")
		default:
			if ch < 0x20 || ch >= 0x80 {
				b.WriteString("\\")
				b.WriteString(octal3(ch))
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}

func octal3(ch byte) string {
	digits := []byte{'0' + (ch >> 6), '0' + ((ch >> 3) & 7), '0' + (ch & 7)}
	return string(digits)
}
