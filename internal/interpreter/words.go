package interpreter

import (
	"strings"
	"unicode"
)

// nearestWordCount is how many words on each side of a number are tried
// against learned categories.
const nearestWordCount = 3

var stopwords = map[string]struct{}{
	"de": {}, "do": {}, "da": {}, "em": {}, "no": {}, "na": {}, "para": {},
	"ao": {}, "à": {}, "e": {}, "com": {}, "o": {}, "a": {}, "um": {},
	"uma": {}, "por": {}, "dos": {}, "das": {},
}

// IsStopword reports whether w is too common to carry a category.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Words splits rs into runs of letters, digits and underscores.
func Words(rs []rune) []string {
	var out []string
	start := -1
	for i, r := range rs {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, string(rs[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, string(rs[start:]))
	}
	return out
}

// NearestWords returns up to three words before m (nearest first) followed
// by up to three words after it (nearest first), skipping stopwords and
// numbers.
func NearestWords(rs []rune, m NumberMatch) []string {
	left := Words(rs[:m.Start])
	right := Words(rs[m.End:])

	candidates := make([]string, 0, 2*nearestWordCount)
	for i := len(left) - 1; i >= 0 && i >= len(left)-nearestWordCount; i-- {
		candidates = append(candidates, left[i])
	}
	candidates = append(candidates, right[:min(len(right), nearestWordCount)]...)

	out := candidates[:0]
	for _, w := range candidates {
		if isSalient(w) {
			out = append(out, w)
		}
	}
	return out
}

// SalientWords returns the lowercased words of text worth learning a
// category for: no stopwords, nothing that starts with a digit.
func SalientWords(text string) []string {
	var out []string
	for _, w := range Words([]rune(strings.ToLower(text))) {
		if isSalient(w) {
			out = append(out, w)
		}
	}
	return out
}

func isSalient(w string) bool {
	return w != "" && !IsStopword(w) && !looksNumeric(w)
}

func looksNumeric(w string) bool {
	for _, r := range w {
		return unicode.IsDigit(r)
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
