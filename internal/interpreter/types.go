package interpreter

import (
	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/shopspring/decimal"
)

// NumberMatch is a numeric token located in an utterance. Start and End
// are rune indices into the lowercased utterance, not byte offsets into the
// text the caller passed in.
type NumberMatch struct {
	Raw   string // matched text, currency marker included
	Token string // Raw reduced to digits, ',', '.' and '-'
	Start int    // first rune of Raw
	End   int    // one past the last rune of Raw
}

// Provenance records which resolution tier produced a category.
type Provenance int

const (
	ProvenanceNone Provenance = iota
	ProvenanceLearned
	ProvenanceKeyword
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceLearned:
		return "learned"
	case ProvenanceKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// Category is either a known category name or Unresolved. The zero value
// is Unresolved.
type Category struct {
	name   string
	source Provenance
}

// Known returns a resolved category.
func Known(name string, source Provenance) Category {
	return Category{name: name, source: source}
}

// Unresolved returns the sentinel that asks the caller to let the user pick.
func Unresolved() Category {
	return Category{}
}

// Resolved reports whether the category carries a name.
func (c Category) Resolved() bool { return c.name != "" }

// Name returns the category name, or "" when unresolved.
func (c Category) Name() string { return c.name }

// Source returns the tier that resolved the category.
func (c Category) Source() Provenance { return c.source }

func (c Category) String() string {
	if !c.Resolved() {
		return "unresolved"
	}
	return c.name
}

// Transaction is a candidate produced by Interpret, before persistence.
// Amount is negative for expenses and non-negative for income.
type Transaction struct {
	Amount    decimal.Decimal
	Direction domain.Direction
	Category  Category
	Note      string
}
