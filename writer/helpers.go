package writer

import (
	"crypto/rand"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/edocket/bindery/pdf"
)

func rectArray(r pdf.Rect) pdf.Array {
	return pdf.Array{pdf.Real(r.LLX), pdf.Real(r.LLY), pdf.Real(r.URX), pdf.Real(r.URY)}
}

// normalizeRotation folds a rotation to [0, 360) and rejects values that are
// not quarter turns.
func normalizeRotation(rot int) int {
	rot %= 360
	if rot < 0 {
		rot += 360
	}
	if rot%90 != 0 {
		return 0
	}
	return rot
}

// streamKey fingerprints a stream for deduplication. filter and parms take
// any serializable object; ensureStream passes the whole stream dictionary.
func streamKey(data []byte, filter, parms pdf.Object) [32]byte {
	h, _ := blake2b.New256(nil)
	if filter != nil {
		h.Write(pdf.Serialize(filter))
	}
	h.Write([]byte{0})
	if parms != nil {
		h.Write(pdf.Serialize(parms))
	}
	h.Write([]byte{0})
	h.Write(data)
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// fontKey fingerprints a face for cross-instance deduplication: the base
// name and font program identify the face, the recorded glyph-to-rune pairs
// keep faces with different ToUnicode coverage apart.
func fontKey(f *pdf.Font) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(f.BaseFont))
	h.Write([]byte{0})
	h.Write(f.Data)
	h.Write([]byte{0})
	cids := make([]int, 0, len(f.ToUnicode))
	for cid := range f.ToUnicode {
		cids = append(cids, int(cid))
	}
	sort.Ints(cids)
	for _, cid := range cids {
		fmt.Fprintf(h, "%d:%d;", cid, f.ToUnicode[uint16(cid)])
	}
	return string(h.Sum(nil))
}

// fileID returns the trailer ID pair. Deterministic mode hashes the written
// body so identical documents get identical identifiers; otherwise both
// halves are random.
func fileID(body []byte, deterministic bool) ([2][]byte, error) {
	if deterministic {
		sum := blake2b.Sum256(body)
		seed := append([]byte(nil), sum[:16]...)
		return [2][]byte{seed, seed}, nil
	}
	first := make([]byte, 16)
	if _, err := rand.Read(first); err != nil {
		return [2][]byte{}, err
	}
	second := make([]byte, 16)
	if _, err := rand.Read(second); err != nil {
		return [2][]byte{}, err
	}
	return [2][]byte{first, second}, nil
}
