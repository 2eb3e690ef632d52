package interpreter

import (
	"context"
	"fmt"
	"strings"
)

// Interpreter extracts candidate transactions from utterances. It holds no
// mutable state and is safe for concurrent use when its Lookup is.
type Interpreter struct {
	resolver *Resolver
}

// New creates an Interpreter that reads learned categories from learned.
func New(learned Lookup) *Interpreter {
	return &Interpreter{resolver: NewResolver(learned)}
}

// Interpret returns one transaction per parseable number in text, in order
// of appearance. Tokens that do not parse are skipped; an utterance without
// numbers yields an empty slice. The only error is a failing Lookup.
func (in *Interpreter) Interpret(ctx context.Context, text string) ([]Transaction, error) {
	rs := []rune(strings.ToLower(text))
	matches := scanRunes(rs)

	txs := make([]Transaction, 0, len(matches))
	for i, m := range matches {
		amount, err := ParseAmount(m.Token)
		if err != nil {
			continue
		}

		w := NewWindow(rs, matches, i)
		dir, signed := ClassifyDirection(w, amount)

		category, err := in.resolver.Resolve(ctx, rs, m, w, dir)
		if err != nil {
			return nil, fmt.Errorf("Interpret: %w", err)
		}

		txs = append(txs, Transaction{
			Amount:    signed,
			Direction: dir,
			Category:  category,
			Note:      noteWithout(rs, m),
		})
	}

	return txs, nil
}

// noteWithout returns the utterance with m cut out and runs of whitespace
// collapsed.
func noteWithout(rs []rune, m NumberMatch) string {
	rest := string(rs[:m.Start]) + " " + string(rs[m.End:])
	return strings.Join(strings.Fields(rest), " ")
}
