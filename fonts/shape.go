package fonts

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
)

// DetectScript returns the dominant script of the given runes. Runes of
// unknown script do not vote; ties keep the earlier winner, and all-unknown
// input falls back to Latin.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	best := language.Latin
	max := 0
	for _, r := range runes {
		script := scriptOf(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > max {
			max = counts[script]
			best = script
		}
	}
	return best
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

func scriptOf(r rune) language.Script {
	switch {
	case r >= 0x0041 && r <= 0x024F:
		return language.Latin
	case r >= 0x0370 && r <= 0x03FF:
		return language.Greek
	case r >= 0x0400 && r <= 0x04FF:
		return language.Cyrillic
	case r >= 0x0590 && r <= 0x05FF:
		return language.Hebrew
	case r >= 0x0600 && r <= 0x06FF || r >= 0x0750 && r <= 0x077F:
		return language.Arabic
	case r >= 0x0900 && r <= 0x097F:
		return language.Devanagari
	case r >= 0x0E00 && r <= 0x0E7F:
		return language.Thai
	case r >= 0x3040 && r <= 0x309F:
		return language.Hiragana
	case r >= 0x30A0 && r <= 0x30FF:
		return language.Katakana
	case r >= 0x4E00 && r <= 0x9FFF || r >= 0x3400 && r <= 0x4DBF:
		return language.Han
	case r >= 0xAC00 && r <= 0xD7AF || r >= 0x1100 && r <= 0x11FF:
		return language.Hangul
	}
	return language.Unknown
}
