// Package store defines the persistence contracts shared by the SQLite and
// BigQuery backends.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/saldo-certo/internal/domain"
)

// ErrEmptyWord is returned by Learn for words that are blank after trimming.
var ErrEmptyWord = errors.New("empty word")

// AssociationStore holds the words users taught, each bound to a category.
type AssociationStore interface {
	// Lookup returns the category learned for word. Matching is exact after
	// NormalizeWord.
	Lookup(ctx context.Context, word string) (category string, ok bool, err error)

	// Learn binds word to category unless word is already bound. A second
	// call for the same word is a no-op, whatever its category.
	Learn(ctx context.Context, word, category string) error
}

// Ledger persists transactions and answers balance queries.
type Ledger interface {
	// AddTransaction stores tx.
	AddTransaction(ctx context.Context, tx *domain.Transaction) error

	// Balance returns the sum of all of a user's amounts.
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)

	// Totals summarizes a user's transactions that occurred at or after
	// since. A zero since covers all time.
	Totals(ctx context.Context, userID string, since time.Time) (Totals, error)

	// ListTransactions returns a user's transactions that occurred at or
	// after since, newest first. A zero since covers all time.
	ListTransactions(ctx context.Context, userID string, since time.Time) ([]*domain.Transaction, error)

	// ResetUser deletes every transaction of a user and returns how many
	// were removed.
	ResetUser(ctx context.Context, userID string) (int64, error)
}

// Store is a complete backend.
type Store interface {
	AssociationStore
	Ledger
	Close() error
}

// Totals is a summary over a set of transactions. Expense is reported as a
// positive magnitude.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Count   int             `json:"count"`
}

// Net returns income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Add folds amount into the totals.
func (t *Totals) Add(amount decimal.Decimal) {
	if amount.IsNegative() {
		t.Expense = t.Expense.Add(amount.Neg())
	} else {
		t.Income = t.Income.Add(amount)
	}
	t.Count++
}

// NormalizeWord is the canonical form under which words are learned and
// looked up.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// StartOfMonth returns midnight UTC on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
