// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	amount      TEXT NOT NULL,
	direction   TEXT NOT NULL,
	category    TEXT NOT NULL,
	note        TEXT NOT NULL DEFAULT '',
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions (user_id, occurred_at);

CREATE TABLE IF NOT EXISTS learned_words (
	word       TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	learned_at TEXT NOT NULL
);
`

// Store is a SQLite-backed store.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" is accepted for throwaway databases.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("Open: create directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: sql open: %w", err)
	}
	// One connection keeps writes serialized and lets ":memory:" work.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the category learned for word.
func (s *Store) Lookup(ctx context.Context, word string) (string, bool, error) {
	word = store.NormalizeWord(word)
	if word == "" {
		return "", false, nil
	}

	var category string
	err := s.db.QueryRowContext(ctx, `SELECT category FROM learned_words WHERE word = ?`, word).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Lookup: query: %w", err)
	}
	return category, true, nil
}

// Learn binds word to category if word is not bound yet.
func (s *Store) Learn(ctx context.Context, word, category string) error {
	word = store.NormalizeWord(word)
	if word == "" {
		return store.ErrEmptyWord
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO learned_words (word, category, learned_at) VALUES (?, ?, ?)`,
		word, category, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("Learn: insert: %w", err)
	}
	return nil
}

// AddTransaction stores tx.
func (s *Store) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, direction, category, note, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount.String(), string(tx.Direction), tx.Category, tx.Note, formatTime(tx.OccurredAt))
	if err != nil {
		return fmt.Errorf("AddTransaction: insert: %w", err)
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

// Totals sums a user's amounts since the given time. Amounts are stored as
// decimal text and summed here so no precision is lost to REAL arithmetic.
func (s *Store) Totals(ctx context.Context, userID string, since time.Time) (store.Totals, error) {
	totals := store.Totals{Income: decimal.Zero, Expense: decimal.Zero}

	rows, err := s.db.QueryContext(ctx,
		`SELECT amount FROM transactions WHERE user_id = ? AND occurred_at >= ?`,
		userID, sinceBound(since))
	if err != nil {
		return totals, fmt.Errorf("Totals: query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return totals, fmt.Errorf("Totals: scan: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return totals, fmt.Errorf("Totals: parse amount %q: %w", raw, err)
		}
		totals.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return totals, fmt.Errorf("Totals: rows: %w", err)
	}
	return totals, nil
}

// ListTransactions returns a user's transactions since the given time,
// newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, since time.Time) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, direction, category, note, occurred_at
		 FROM transactions
		 WHERE user_id = ? AND occurred_at >= ?
		 ORDER BY occurred_at DESC, rowid DESC`,
		userID, sinceBound(since))
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var (
			tx                  domain.Transaction
			amount, dir, occurs string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &amount, &dir, &tx.Category, &tx.Note, &occurs); err != nil {
			return nil, fmt.Errorf("ListTransactions: scan: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("ListTransactions: parse amount %q: %w", amount, err)
		}
		if tx.OccurredAt, err = time.Parse(timeLayout, occurs); err != nil {
			return nil, fmt.Errorf("ListTransactions: parse time %q: %w", occurs, err)
		}
		tx.Direction = domain.Direction(dir)
		if !tx.Direction.Valid() {
			return nil, fmt.Errorf("ListTransactions: unknown direction %q in transaction %s", dir, tx.ID)
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactions: rows: %w", err)
	}
	return txs, nil
}

// ResetUser deletes every transaction of a user.
func (s *Store) ResetUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("ResetUser: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ResetUser: rows affected: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func sinceBound(since time.Time) string {
	if since.IsZero() {
		return ""
	}
	return formatTime(since)
}
