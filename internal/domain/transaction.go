package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction tells whether money came in or went out.
type Direction string

const (
	// DirectionIncome is money received. Income amounts are non-negative.
	DirectionIncome Direction = "income"
	// DirectionExpense is money spent. Expense amounts are negative.
	DirectionExpense Direction = "expense"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Label returns the Portuguese label shown to users.
func (d Direction) Label() string {
	if d == DirectionExpense {
		return "Despesa"
	}
	return "Receita"
}

// DirectionOf derives the direction from the sign of amount.
// Zero counts as income.
func DirectionOf(amount decimal.Decimal) Direction {
	if amount.IsNegative() {
		return DirectionExpense
	}
	return DirectionIncome
}

// Transaction is a persisted ledger entry owned by one chat user.
// The sign of Amount is definitional: negative = expense, positive = income.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Direction  Direction       `json:"direction"`
	Category   string          `json:"category"`
	Note       string          `json:"note"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewTransaction builds a ledger entry with a fresh ID. Direction is
// derived from the amount so that the two can never disagree.
func NewTransaction(userID string, amount decimal.Decimal, category, note string, occurredAt time.Time) *Transaction {
	return &Transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     amount,
		Direction:  DirectionOf(amount),
		Category:   category,
		Note:       note,
		OccurredAt: occurredAt.UTC(),
	}
}
