package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/saldo-certo/internal/domain"
)

// numericScale is the number of fractional digits of a BigQuery NUMERIC.
const numericScale = 9

type TransactionRow struct {
	TransactionID string              `bigquery:"transaction_id"` // REQUIRED
	UserID        string              `bigquery:"user_id"`        // REQUIRED
	Amount        *big.Rat            `bigquery:"amount"`         // REQUIRED NUMERIC
	Direction     string              `bigquery:"direction"`      // REQUIRED
	Category      string              `bigquery:"category"`       // REQUIRED
	Note          bigquery.NullString `bigquery:"note"`           // NULLABLE
	OccurredTS    time.Time           `bigquery:"occurred_ts"`    // REQUIRED
	CreatedTS     time.Time           `bigquery:"created_ts"`     // REQUIRED
}

type LearnedWordRow struct {
	Word      string    `bigquery:"word"`       // REQUIRED
	Category  string    `bigquery:"category"`   // REQUIRED
	LearnedTS time.Time `bigquery:"learned_ts"` // REQUIRED
}

// totalsRow is the result of the per-user aggregate query.
type totalsRow struct {
	Income  *big.Rat `bigquery:"income"`
	Expense *big.Rat `bigquery:"expense"`
	Count   int64    `bigquery:"n"`
}

func toRow(tx *domain.Transaction, created time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount.Rat(),
		Direction:     string(tx.Direction),
		Category:      tx.Category,
		Note:          bigquery.NullString{StringVal: tx.Note, Valid: tx.Note != ""},
		OccurredTS:    tx.OccurredAt.UTC(),
		CreatedTS:     created.UTC(),
	}
}

func fromRow(r *TransactionRow) (*domain.Transaction, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", r.TransactionID, err)
	}
	dir := domain.Direction(r.Direction)
	if !dir.Valid() {
		return nil, fmt.Errorf("transaction %s: unknown direction %q", r.TransactionID, r.Direction)
	}
	return &domain.Transaction{
		ID:         r.TransactionID,
		UserID:     r.UserID,
		Amount:     amount,
		Direction:  dir,
		Category:   r.Category,
		Note:       r.Note.StringVal,
		OccurredAt: r.OccurredTS.UTC(),
	}, nil
}

// ratToDecimal converts a NUMERIC value. A nil value, as returned for SUM
// over no rows, is zero.
func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("numeric %s: %w", r.String(), err)
	}
	return d, nil
}
