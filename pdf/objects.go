// Package pdf holds the object model shared by the reading and writing
// stacks: raw COS objects (names, numbers, strings, arrays, dictionaries,
// streams, references), the document/page model the engine assembles, and
// the object syntax (parse and serialize).
package pdf

import "sort"

// Object is any PDF object. Concrete types are Name, Integer, Real,
// Boolean, String, Null, Array, *Dict, *Stream and Ref, plus the writer
// placeholders FontRef and GSAlpha.
type Object interface {
	isObject()
}

type Name string

func (Name) isObject() {}

type Integer int64

func (Integer) isObject() {}

type Real float64

func (Real) isObject() {}

type Boolean bool

func (Boolean) isObject() {}

type Null struct{}

func (Null) isObject() {}

// String is a PDF string. Hex records the notation it was read in (or
// should be written in); the payload is always the decoded bytes.
type String struct {
	Data []byte
	Hex  bool
}

func (String) isObject() {}

type Array []Object

func (Array) isObject() {}

// Ref is an indirect object reference. It doubles as the object-table key.
type Ref struct {
	Num int
	Gen int
}

func (Ref) isObject() {}

// Dict is a PDF dictionary. Key iteration is sorted so serialization is
// deterministic.
type Dict struct {
	kv map[string]Object
}

func (*Dict) isObject() {}

func NewDict() *Dict { return &Dict{kv: make(map[string]Object)} }

func (d *Dict) Get(key string) (Object, bool) {
	if d == nil || d.kv == nil {
		return nil, false
	}
	o, ok := d.kv[key]
	return o, ok
}

func (d *Dict) Set(key string, v Object) {
	if d.kv == nil {
		d.kv = make(map[string]Object)
	}
	d.kv[key] = v
}

func (d *Dict) Delete(key string) {
	if d != nil && d.kv != nil {
		delete(d.kv, key)
	}
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.kv)
}

func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.kv))
	for k := range d.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns the integer value at key, following Real values that happen
// to be integral.
func (d *Dict) Int(key string) (int64, bool) {
	o, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	switch v := o.(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

func (d *Dict) NameVal(key string) (string, bool) {
	o, ok := d.Get(key)
	if !ok {
		return "", false
	}
	n, ok := o.(Name)
	return string(n), ok
}

func (d *Dict) DictVal(key string) (*Dict, bool) {
	o, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	v, ok := o.(*Dict)
	return v, ok
}

func (d *Dict) ArrayVal(key string) (Array, bool) {
	o, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	v, ok := o.(Array)
	return v, ok
}

func (d *Dict) RefVal(key string) (Ref, bool) {
	o, ok := d.Get(key)
	if !ok {
		return Ref{}, false
	}
	v, ok := o.(Ref)
	return v, ok
}

// RectVal reads a four-number array at key.
func (d *Dict) RectVal(key string) (Rect, bool) {
	arr, ok := d.ArrayVal(key)
	if !ok || len(arr) != 4 {
		return Rect{}, false
	}
	var vals [4]float64
	for i, o := range arr {
		v, ok := Numeric(o)
		if !ok {
			return Rect{}, false
		}
		vals[i] = v
	}
	return Rect{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, true
}

// Clone returns a shallow copy of the dictionary.
func (d *Dict) Clone() *Dict {
	out := NewDict()
	if d == nil {
		return out
	}
	for k, v := range d.kv {
		out.kv[k] = v
	}
	return out
}

// Stream is a stream object: a dictionary plus its (still encoded) data.
type Stream struct {
	Dict *Dict
	Data []byte
}

func (*Stream) isObject() {}

func NewStream(dict *Dict, data []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	return &Stream{Dict: dict, Data: data}
}

// Numeric reads an Integer or Real as float64.
func Numeric(o Object) (float64, bool) {
	switch v := o.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// Font describes a font the writer materializes on demand. With Data nil it
// names a standard 14 face. Otherwise it is an embedded TrueType program
// written as a Type0/Identity-H composite, with glyph advances in 1000/em
// units and an optional glyph-to-rune map for the ToUnicode CMap.
type Font struct {
	BaseFont     string
	Data         []byte
	GlyphWidths  map[uint16]int
	DefaultWidth int
	ToUnicode    map[uint16]rune
	Ascent       float64
	Descent      float64
	CapHeight    float64
	ItalicAngle  float64
	BBox         [4]float64
	Flags        int
}

// FontRef is a placeholder inside a resource dictionary for a font the
// writer has not materialized yet. Serializing one directly is a bug; the
// writer replaces them with real references.
type FontRef struct {
	F *Font
}

func (FontRef) isObject() {}

// GSAlpha is a placeholder for an ExtGState carrying only a fill alpha.
type GSAlpha struct {
	Alpha float64
}

func (GSAlpha) isObject() {}
