// Package export renders a user's transactions as CSV and archives the
// files to Cloud Storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// File names offered to users.
const (
	AllTimeFilename = "transacoes_totais.csv"
	MonthlyFilename = "transacoes_mes_atual.csv"
)

// ContentType of the generated files.
const ContentType = "text/csv; charset=utf-8"

// utf8BOM lets spreadsheet programs detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"date", "amount", "category", "note"}

// File is a rendered CSV export.
type File struct {
	Name string
	Data []byte
	Rows int
}

// Filename returns the file name for an all-time or monthly export.
func Filename(monthly bool) string {
	if monthly {
		return MonthlyFilename
	}
	return AllTimeFilename
}

// Build renders the transactions of userID that occurred at or after since.
// It returns nil when there is nothing to export.
func Build(ctx context.Context, ledger store.Ledger, userID string, since time.Time, monthly bool) (*File, error) {
	txs, err := ledger.ListTransactions(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("Build: list transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	return &File{Name: Filename(monthly), Data: buf.Bytes(), Rows: len(txs)}, nil
}

// WriteCSV writes a BOM, the header and one row per transaction in the
// order given.
func WriteCSV(w io.Writer, txs []*domain.Transaction) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.OccurredAt.UTC().Format(time.RFC3339),
			tx.Amount.StringFixed(2),
			tx.Category,
			tx.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
