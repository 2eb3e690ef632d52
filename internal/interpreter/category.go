package interpreter

import (
	"context"
	"fmt"

	"github.com/dvloznov/saldo-certo/internal/domain"
)

// Lookup is the read side of the learned-word store. Implementations match
// words case-insensitively and exactly.
type Lookup interface {
	Lookup(ctx context.Context, word string) (category string, ok bool, err error)
}

// Resolver assigns categories in three tiers: words the user taught,
// keyword dictionaries, then Unresolved.
type Resolver struct {
	learned Lookup
	expense []CategoryRule
	income  []CategoryRule
}

// NewResolver creates a resolver over the default dictionaries. learned may
// be nil, in which case only the dictionaries are used.
func NewResolver(learned Lookup) *Resolver {
	return &Resolver{
		learned: learned,
		expense: ExpenseRules,
		income:  IncomeRules,
	}
}

// Resolve picks the category of the number m. The nearest words around m
// are tried against learned associations first; the window is then
// searched with the dictionary for dir.
func (r *Resolver) Resolve(ctx context.Context, rs []rune, m NumberMatch, w Window, dir domain.Direction) (Category, error) {
	if r.learned != nil {
		for _, word := range NearestWords(rs, m) {
			name, ok, err := r.learned.Lookup(ctx, word)
			if err != nil {
				return Unresolved(), fmt.Errorf("Resolve: lookup %q: %w", word, err)
			}
			if ok {
				return Known(name, ProvenanceLearned), nil
			}
		}
	}

	rules := r.expense
	if dir == domain.DirectionIncome {
		rules = r.income
	}
	for _, rule := range rules {
		if containsAny(w.Text, rule.Keywords) {
			return Known(rule.Name, ProvenanceKeyword), nil
		}
	}

	return Unresolved(), nil
}
