package interpreter

import "strings"

// Scan finds the numeric tokens of text in left-to-right order. A token is
// an optional currency marker ("r$" or "$") and blanks, an optional minus,
// then digit groups joined by ',' or '.'. Each token takes the longest run
// available at its start, so spans never overlap.
//
// Scan expects text to be lowercased already.
func Scan(text string) []NumberMatch {
	return scanRunes([]rune(text))
}

func scanRunes(rs []rune) []NumberMatch {
	var matches []NumberMatch
	for i := 0; i < len(rs); {
		end, ok := matchAt(rs, i)
		if !ok {
			i++
			continue
		}
		raw := string(rs[i:end])
		token := stripToken(raw)
		if !isArtifact(token) {
			matches = append(matches, NumberMatch{Raw: raw, Token: token, Start: i, End: end})
		}
		i = end
	}
	return matches
}

// matchAt reports the end of a token starting exactly at i.
func matchAt(rs []rune, i int) (int, bool) {
	if n := markerLen(rs, i); n > 0 {
		j := i + n
		for j < len(rs) && isBlank(rs[j]) {
			j++
		}
		return numberAt(rs, j)
	}
	return numberAt(rs, i)
}

func markerLen(rs []rune, i int) int {
	switch {
	case i+1 < len(rs) && rs[i] == 'r' && rs[i+1] == '$':
		return 2
	case i < len(rs) && rs[i] == '$':
		return 1
	}
	return 0
}

func numberAt(rs []rune, i int) (int, bool) {
	j := i
	if j < len(rs) && rs[j] == '-' {
		j++
	}
	if j >= len(rs) || !isDigit(rs[j]) {
		return 0, false
	}
	for j < len(rs) && isDigit(rs[j]) {
		j++
	}
	// A separator only belongs to the number when a digit follows it.
	for j+1 < len(rs) && isSeparator(rs[j]) && isDigit(rs[j+1]) {
		j++
		for j < len(rs) && isDigit(rs[j]) {
			j++
		}
	}
	return j, true
}

// stripToken keeps digits, separators and the minus sign.
func stripToken(raw string) string {
	return strings.Map(func(r rune) rune {
		if isDigit(r) || isSeparator(r) || r == '-' {
			return r
		}
		return -1
	}, raw)
}

// isArtifact reports tokens that carry no digits at all.
func isArtifact(token string) bool {
	switch token {
	case "", "-", ".", ",":
		return true
	}
	return false
}

func isDigit(r rune) bool     { return r >= '0' && r <= '9' }
func isSeparator(r rune) bool { return r == ',' || r == '.' }
func isBlank(r rune) bool     { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
