package filters

import (
	"errors"
	"fmt"

	"github.com/edocket/bindery/pdf"
)

// applyPredictor undoes the predictor named in DecodeParms. Cross-reference
// streams almost always use PNG Up (12); TIFF horizontal (2) shows up in
// image data.
func applyPredictor(data []byte, params *pdf.Dict) ([]byte, error) {
	if params == nil {
		return data, nil
	}
	predictor, ok := params.Int("Predictor")
	if !ok || predictor <= 1 {
		return data, nil
	}
	colors := intOr(params, "Colors", 1)
	bpc := intOr(params, "BitsPerComponent", 8)
	columns := intOr(params, "Columns", 1)

	if predictor == 2 {
		return undoTIFF(data, colors, bpc, columns)
	}
	if predictor >= 10 && predictor <= 15 {
		return undoPNG(data, colors, bpc, columns)
	}
	return nil, fmt.Errorf("unsupported predictor %d", predictor)
}

func intOr(d *pdf.Dict, key string, def int) int {
	if v, ok := d.Int(key); ok {
		return int(v)
	}
	return def
}

func undoTIFF(data []byte, colors, bpc, columns int) ([]byte, error) {
	if bpc != 8 {
		return nil, fmt.Errorf("tiff predictor with %d bits per component", bpc)
	}
	rowLen := colors * columns
	if rowLen <= 0 || len(data)%rowLen != 0 {
		return nil, errors.New("tiff predictor row size mismatch")
	}
	out := make([]byte, len(data))
	copy(out, data)
	for row := 0; row < len(out); row += rowLen {
		for i := colors; i < rowLen; i++ {
			out[row+i] += out[row+i-colors]
		}
	}
	return out, nil
}

// undoPNG reverses per-row PNG filtering. Each encoded row carries a
// leading filter-type byte.
func undoPNG(data []byte, colors, bpc, columns int) ([]byte, error) {
	rowLen := (colors*bpc*columns + 7) / 8
	bpp := (colors*bpc + 7) / 8
	if bpp < 1 {
		bpp = 1
	}
	if rowLen <= 0 || len(data)%(rowLen+1) != 0 {
		return nil, errors.New("png predictor row size mismatch")
	}
	rows := len(data) / (rowLen + 1)
	out := make([]byte, 0, rows*rowLen)
	prior := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		ft := data[r*(rowLen+1)]
		copy(cur, data[r*(rowLen+1)+1:(r+1)*(rowLen+1)])
		switch ft {
		case 0:
		case 1:
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2:
			for i := 0; i < rowLen; i++ {
				cur[i] += prior[i]
			}
		case 3:
			for i := 0; i < rowLen; i++ {
				left := 0
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prior[i])) / 2)
			}
		case 4:
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prior[i-bpp]
				}
				cur[i] += paeth(left, prior[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("png filter type %d", ft)
		}
		out = append(out, cur...)
		prior, cur = cur, prior
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
