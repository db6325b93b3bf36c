package fonts

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/edocket/bindery/pdf"
)

// Face is an embedded TrueType or OpenType face. Static metrics come from
// the sfnt tables; text runs are shaped through HarfBuzz so advances include
// kerning and complex-script forms. The writer embeds the full program as a
// Type0/Identity-H composite, so glyph IDs double as character codes.
type Face struct {
	name      string
	data      []byte
	shapeFace *gofont.Face
	font      *pdf.Font

	mu        sync.Mutex
	advances  map[string]float64 // advance at size 1000
	toUnicode map[uint16]rune    // shared with font.ToUnicode
}

// NewFace parses a TrueType or OpenType font program. The full program is
// embedded on write; no subsetting is performed.
func NewFace(name string, data []byte) (*Face, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("fonts: empty font program")
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: parse font program: %w", err)
	}
	upem := sf.UnitsPerEm()
	if upem == 0 {
		return nil, fmt.Errorf("fonts: font reports zero unitsPerEm")
	}
	shapeFace, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fonts: parse font program: %w", err)
	}

	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(upem << 6)
	scale := func(v fixed.Int26_6) float64 {
		return float64(v) * 1000.0 / (64.0 * float64(upem))
	}

	baseName := strings.TrimSpace(name)
	if ps, _ := sf.Name(buf, sfnt.NameIDPostScript); ps != "" {
		baseName = ps
	}
	if baseName == "" {
		baseName = "Embedded"
	}

	widths := make(map[uint16]int, sf.NumGlyphs())
	for i := 0; i < sf.NumGlyphs(); i++ {
		adv, err := sf.GlyphAdvance(buf, sfnt.GlyphIndex(i), ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		widths[uint16(i)] = int(math.Round(scale(adv)))
	}
	defaultWidth := widths[0]
	if defaultWidth == 0 {
		defaultWidth = 1000
	}

	toUnicode := make(map[uint16]rune)
	font := &pdf.Font{
		BaseFont:     baseName,
		Data:         data,
		GlyphWidths:  widths,
		DefaultWidth: defaultWidth,
		ToUnicode:    toUnicode,
		Flags:        4,
	}
	if metrics, err := sf.Metrics(buf, ppem, xfont.HintingNone); err == nil {
		font.Ascent = scale(metrics.Ascent)
		font.Descent = -scale(metrics.Descent)
	}
	font.CapHeight = font.Ascent
	if bounds, err := sf.Bounds(buf, ppem, xfont.HintingNone); err == nil {
		// sfnt bounds are y-down; FontBBox wants y-up.
		font.BBox = [4]float64{
			scale(bounds.Min.X),
			-scale(bounds.Max.Y),
			scale(bounds.Max.X),
			-scale(bounds.Min.Y),
		}
	}
	if post := sf.PostTable(); post != nil {
		font.ItalicAngle = post.ItalicAngle
	}

	return &Face{
		name:      baseName,
		data:      data,
		shapeFace: shapeFace,
		font:      font,
		advances:  make(map[string]float64),
		toUnicode: toUnicode,
	}, nil
}

// Name returns the PostScript name of the face.
func (f *Face) Name() string { return f.name }

type shapedGlyph struct {
	gid     uint16
	advance float64 // 1000/em units
	cluster int
}

// shape runs the text through HarfBuzz at a nominal size of 1000, so the
// resulting advances land directly in 1/1000 em units.
func (f *Face) shape(text string) []shapedGlyph {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	script := DetectScript(runes)
	shaper := &shaping.HarfbuzzShaper{}
	out := shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      f.shapeFace,
		Size:      fixed.Int26_6(1000 * 64),
		Script:    script,
		Language:  language.DefaultLanguage(),
	})
	glyphs := make([]shapedGlyph, 0, len(out.Glyphs))
	for _, g := range out.Glyphs {
		glyphs = append(glyphs, shapedGlyph{
			gid:     uint16(g.GlyphID),
			advance: float64(g.XAdvance) / 64.0,
			cluster: int(g.ClusterIndex),
		})
	}
	return glyphs
}

func (f *Face) Advance(text string, size float64) float64 {
	f.mu.Lock()
	unit, ok := f.advances[text]
	f.mu.Unlock()
	if !ok {
		for _, g := range f.shape(text) {
			unit += g.advance
		}
		f.mu.Lock()
		f.advances[text] = unit
		f.mu.Unlock()
	}
	return unit * size / 1000
}

// Encode shapes text into a hex string of big-endian glyph IDs and records
// the glyph-to-rune pairs for the ToUnicode CMap.
func (f *Face) Encode(text string) pdf.Object {
	glyphs := f.shape(text)
	runes := []rune(text)
	out := make([]byte, 0, len(glyphs)*2)
	f.mu.Lock()
	for _, g := range glyphs {
		out = append(out, byte(g.gid>>8), byte(g.gid))
		if g.cluster >= 0 && g.cluster < len(runes) {
			if _, seen := f.toUnicode[g.gid]; !seen {
				f.toUnicode[g.gid] = runes[g.cluster]
			}
		}
	}
	f.mu.Unlock()
	return pdf.String{Data: out, Hex: true}
}

func (f *Face) Ascent(size float64) float64  { return f.font.Ascent * size / 1000 }
func (f *Face) Descent(size float64) float64 { return f.font.Descent * size / 1000 }

func (f *Face) Font() *pdf.Font { return f.font }
