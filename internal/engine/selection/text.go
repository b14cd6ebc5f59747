package selection

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// NextGrapheme returns the byte offset just after the grapheme cluster that
// starts at or contains off.
func NextGrapheme(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	pos := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		pos += len(cluster)
		if pos > off {
			return pos
		}
	}
	return len(s)
}

// PrevGrapheme returns the byte offset of the start of the grapheme cluster
// that ends at or contains off.
func PrevGrapheme(s string, off int) int {
	if off <= 0 {
		return 0
	}
	if off > len(s) {
		off = len(s)
	}
	pos := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if pos+len(cluster) >= off {
			return pos
		}
		pos += len(cluster)
	}
	return pos
}

type segment struct {
	start, end int
	space      bool
}

func words(s string) []segment {
	var segs []segment
	pos := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		r, _ := utf8.DecodeRuneInString(w)
		segs = append(segs, segment{start: pos, end: pos + len(w), space: !isWordRune(r)})
		pos += len(w)
	}
	return segs
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\''
}

// NextWordEnd returns the end of the next word at or after off, skipping
// leading whitespace and punctuation.
func NextWordEnd(s string, off int) int {
	for _, seg := range words(s) {
		if seg.end <= off || seg.space {
			continue
		}
		return seg.end
	}
	return len(s)
}

// PrevWordStart returns the start of the word before off, skipping trailing
// whitespace and punctuation.
func PrevWordStart(s string, off int) int {
	segs := words(s)
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if seg.start >= off || seg.space {
			continue
		}
		return seg.start
	}
	return 0
}

// GraphemeCount returns the number of user-perceived characters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
