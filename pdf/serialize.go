package pdf

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
)

// Serialize renders an object in PDF syntax. Dictionary keys come out
// sorted so output is deterministic. Writer placeholders (FontRef, GSAlpha)
// must have been replaced before serialization; they render as null.
func Serialize(o Object) []byte {
	var buf bytes.Buffer
	writeObject(&buf, o)
	return buf.Bytes()
}

func writeObject(buf *bytes.Buffer, o Object) {
	switch v := o.(type) {
	case Name:
		buf.WriteByte('/')
		buf.WriteString(escapeName(string(v)))
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		buf.WriteString(FormatNumber(float64(v)))
	case Boolean:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Null:
		buf.WriteString("null")
	case String:
		if v.Hex {
			buf.WriteByte('<')
			buf.WriteString(strings.ToUpper(hex.EncodeToString(v.Data)))
			buf.WriteByte('>')
		} else {
			buf.Write(EscapeString(v.Data))
		}
	case Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, item)
		}
		buf.WriteByte(']')
	case *Dict:
		buf.WriteString("<<")
		for _, k := range v.Keys() {
			buf.WriteByte('/')
			buf.WriteString(escapeName(k))
			buf.WriteByte(' ')
			item, _ := v.Get(k)
			writeObject(buf, item)
		}
		buf.WriteString(">>")
	case *Stream:
		writeObject(buf, v.Dict)
		buf.WriteString("stream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case Ref:
		buf.WriteString(strconv.Itoa(v.Num))
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(v.Gen))
		buf.WriteString(" R")
	default:
		buf.WriteString("null")
	}
}

// escapeName hex-escapes bytes a name cannot carry directly.
func escapeName(v string) string {
	plain := true
	for i := 0; i < len(v); i++ {
		if !plainNameByte(v[i]) {
			plain = false
			break
		}
	}
	if plain {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		ch := v[i]
		if plainNameByte(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('#')
		const hexDigits = "0123456789ABCDEF"
		b.WriteByte(hexDigits[ch>>4])
		b.WriteByte(hexDigits[ch&0xF])
	}
	return b.String()
}

func plainNameByte(ch byte) bool {
	if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' {
		return true
	}
	switch ch {
	case '-', '_', '.', '+', '*', '\'', '"', '@':
		return true
	}
	return false
}
