package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// AddTransaction inserts tx into the transactions table.
func (s *Store) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	row := toRow(tx, time.Now())

	sql := fmt.Sprintf(`
		INSERT %s (
			transaction_id,
			user_id,
			amount,
			direction,
			category,
			note,
			occurred_ts,
			created_ts
		)
		VALUES (
			@transaction_id,
			@user_id,
			@amount,
			@direction,
			@category,
			@note,
			@occurred_ts,
			@created_ts
		)
	`, s.table(transactionsTable))

	params := []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "user_id", Value: row.UserID},
		{Name: "amount", Value: row.Amount},
		{Name: "direction", Value: row.Direction},
		{Name: "category", Value: row.Category},
		{Name: "note", Value: row.Note},
		{Name: "occurred_ts", Value: row.OccurredTS},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := s.run(ctx, sql, params); err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}
	return nil
}

// Balance returns the sum of a user's amounts.
func (s *Store) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	totals, err := s.Totals(ctx, userID, time.Time{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("Balance: %w", err)
	}
	return totals.Net(), nil
}

// Totals aggregates a user's amounts since the given time.
func (s *Store) Totals(ctx context.Context, userID string, since time.Time) (store.Totals, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			SUM(IF(amount >= 0, amount, 0)) AS income,
			SUM(IF(amount < 0, -amount, 0)) AS expense,
			COUNT(*) AS n
		FROM %s
		WHERE user_id = @user_id
		  AND occurred_ts >= @since
	`, s.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "since", Value: sinceBound(since)},
	}

	totals := store.Totals{Income: decimal.Zero, Expense: decimal.Zero}

	it, err := q.Read(ctx)
	if err != nil {
		return totals, fmt.Errorf("Totals: query read: %w", err)
	}

	var r totalsRow
	err = it.Next(&r)
	if err == iterator.Done {
		return totals, nil
	}
	if err != nil {
		return totals, fmt.Errorf("Totals: iter next: %w", err)
	}

	if totals.Income, err = ratToDecimal(r.Income); err != nil {
		return totals, fmt.Errorf("Totals: income: %w", err)
	}
	if totals.Expense, err = ratToDecimal(r.Expense); err != nil {
		return totals, fmt.Errorf("Totals: expense: %w", err)
	}
	totals.Count = int(r.Count)
	return totals, nil
}

// ListTransactions returns a user's transactions since the given time,
// newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, since time.Time) ([]*domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			amount,
			direction,
			category,
			note,
			occurred_ts,
			created_ts
		FROM %s
		WHERE user_id = @user_id
		  AND occurred_ts >= @since
		ORDER BY occurred_ts DESC, created_ts DESC
	`, s.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "since", Value: sinceBound(since)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		tx, err := fromRow(&r)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// ResetUser deletes every transaction of a user.
func (s *Store) ResetUser(ctx context.Context, userID string) (int64, error) {
	sql := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = @user_id
	`, s.table(transactionsTable))

	status, err := s.run(ctx, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	})
	if err != nil {
		return 0, fmt.Errorf("ResetUser: %w", err)
	}
	return affectedRows(status), nil
}

// sinceBound maps the zero time to the Unix epoch, before any stored row.
func sinceBound(since time.Time) time.Time {
	if since.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return since.UTC()
}
