package xref

import (
	"context"
	"errors"
	"io"

	"github.com/edocket/bindery/pdf"
	"github.com/edocket/bindery/scanner"
)

// Rebuild reconstructs a table by scanning the whole file for
// "<num> <gen> obj" headers and trailer dictionaries. Later definitions of
// the same object win, matching how incremental updates append.
func Rebuild(ctx context.Context, src io.ReaderAt) (*Table, error) {
	s := scanner.New(src, scanner.Config{})
	entries := make(map[int]entry)
	var lastTrailer *pdf.Dict

scan:
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Damaged region. Skip a byte so the scan cannot stall.
			if serr := s.SeekTo(s.Pos() + 1); serr != nil {
				break
			}
			continue
		}

		if tok.Type == scanner.TokenNumber && tok.IsInt {
			objNum := int(tok.Int)
			genTok, err := s.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break scan
				}
				continue
			}
			if genTok.Type != scanner.TokenNumber || !genTok.IsInt {
				continue
			}
			kwTok, err := s.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break scan
				}
				continue
			}
			if kwTok.Type == scanner.TokenKeyword && kwTok.Str == "obj" {
				entries[objNum] = entry{offset: tok.Pos, gen: int(genTok.Int)}
				continue
			}
			// genTok might itself start an object header
			if err := s.SeekTo(genTok.Pos); err != nil {
				return nil, err
			}
			continue
		}

		if tok.Type == scanner.TokenKeyword && tok.Str == "trailer" {
			if obj, err := pdf.ParseObject(pdf.NewTokens(s)); err == nil {
				if dict, ok := obj.(*pdf.Dict); ok {
					lastTrailer = dict
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, errors.New("xref: rebuild found no objects")
	}
	if lastTrailer == nil {
		lastTrailer = pdf.NewDict()
	}
	maxNum := 0
	for num := range entries {
		if num > maxNum {
			maxNum = num
		}
	}
	if size, ok := lastTrailer.Int("Size"); !ok || size <= int64(maxNum) {
		lastTrailer.Set("Size", pdf.Integer(maxNum+1))
	}
	return &Table{entries: entries, kind: kindRebuilt, Trailer: lastTrailer}, nil
}
