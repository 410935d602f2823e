package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accent stripping chains are stateful, so they are pooled rather than shared
var stripPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// Fold lower-cases s and removes combining marks ("Prolongación" -> "prolongacion").
// It is the comparison form used by every rule; stored values are never folded.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	if isASCII(s) {
		return strings.ToLower(s)
	}
	t := stripPool.Get().(transform.Transformer)
	out, _, err := transform.String(t, s)
	t.Reset()
	stripPool.Put(t)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// folded is a folded copy of a string that remembers, for every byte of the
// folded text, the byte offset of the original rune it came from.
type folded struct {
	text    string
	offsets []int // len(text)+1 entries, last one is len(original)
}

// foldOffsets folds s rune by rune so that match positions on the folded text
// can be mapped back onto s without losing or inventing characters.
func foldOffsets(s string) folded {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		var f string
		if r < utf8.RuneSelf {
			f = string(unicode.ToLower(r))
		} else {
			f = Fold(string(r))
		}
		for j := 0; j < len(f); j++ {
			offsets = append(offsets, i)
		}
		b.WriteString(f)
	}
	offsets = append(offsets, len(s))

	return folded{text: b.String(), offsets: offsets}
}

// original maps a byte position of the folded text onto the original string.
func (f folded) original(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos >= len(f.offsets) {
		return f.offsets[len(f.offsets)-1]
	}
	return f.offsets[pos]
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
