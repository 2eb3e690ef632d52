package interpreter

// windowRadius is how many runes on each side of a number are searched for
// direction and category keywords.
const windowRadius = 40

// Window is the neighborhood of one number in an utterance.
type Window struct {
	// Text spans windowRadius runes on each side of the number, clamped to
	// the utterance.
	Text string
	// Clause is the part of Text that does not reach past the neighboring
	// numbers. In "paguei 30 e recebi 200" the clause of 200 is
	// " e recebi 200".
	Clause string
	Start  int
	End    int
}

// NewWindow builds the window of matches[i] within rs.
func NewWindow(rs []rune, matches []NumberMatch, i int) Window {
	m := matches[i]
	start := max(0, m.Start-windowRadius)
	end := min(len(rs), m.End+windowRadius)

	clauseStart, clauseEnd := start, end
	if i > 0 {
		clauseStart = max(clauseStart, matches[i-1].End)
	}
	if i+1 < len(matches) {
		clauseEnd = min(clauseEnd, matches[i+1].Start)
	}

	return Window{
		Text:   string(rs[start:end]),
		Clause: string(rs[clauseStart:clauseEnd]),
		Start:  start,
		End:    end,
	}
}
