package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// mockLedger implements store.Ledger for testing.
type mockLedger struct {
	ListTransactionsFunc func(ctx context.Context, userID string, since time.Time) ([]*domain.Transaction, error)
}

func (m *mockLedger) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	return nil
}

func (m *mockLedger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *mockLedger) Totals(ctx context.Context, userID string, since time.Time) (store.Totals, error) {
	return store.Totals{}, nil
}

func (m *mockLedger) ListTransactions(ctx context.Context, userID string, since time.Time) ([]*domain.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockLedger) ResetUser(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

// mockStorage implements Storage for testing.
type mockStorage struct {
	UploadFunc func(ctx context.Context, bucket, object, contentType string, data []byte) error
	uploads    map[string][]byte
}

func (m *mockStorage) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, object, contentType, data)
	}
	if m.uploads == nil {
		m.uploads = map[string][]byte{}
	}
	m.uploads[URI(bucket, object)] = data
	return nil
}

func (m *mockStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	data, ok := m.uploads[uri]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func sampleTransactions() []*domain.Transaction {
	at := time.Date(2024, 5, 2, 15, 4, 5, 0, time.UTC)
	return []*domain.Transaction{
		{ID: "2", UserID: "u1", Amount: decimal.RequireFromString("1234.5"), Category: "salário", Note: "recebi de salário", OccurredAt: at},
		{ID: "1", UserID: "u1", Amount: decimal.RequireFromString("-50"), Category: "alimentação", Note: `mercado, "extra"`, OccurredAt: at.Add(-time.Hour)},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTransactions()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "amount", "category", "note"},
		{"2024-05-02T15:04:05Z", "1234.50", "salário", "recebi de salário"},
		{"2024-05-02T14:04:05Z", "-50.00", "alimentação", `mercado, "extra"`},
	}, records)
}

func TestBuild(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger := &mockLedger{
		ListTransactionsFunc: func(_ context.Context, userID string, got time.Time) ([]*domain.Transaction, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, since, got)
			return sampleTransactions(), nil
		},
	}

	file, err := Build(context.Background(), ledger, "u1", since, true)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, MonthlyFilename, file.Name)
	assert.Equal(t, 2, file.Rows)
}

func TestBuild_Empty(t *testing.T) {
	file, err := Build(context.Background(), &mockLedger{}, "u1", time.Time{}, false)
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestBuild_LedgerError(t *testing.T) {
	ledger := &mockLedger{
		ListTransactionsFunc: func(context.Context, string, time.Time) ([]*domain.Transaction, error) {
			return nil, errors.New("db down")
		},
	}
	_, err := Build(context.Background(), ledger, "u1", time.Time{}, false)
	assert.ErrorContains(t, err, "db down")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "transacoes_totais.csv", Filename(false))
	assert.Equal(t, "transacoes_mes_atual.csv", Filename(true))
}

func TestObjectNameAndURI(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 0, 0, 0, time.FixedZone("BRT", -3*60*60))

	object := ObjectName("42", "abc", AllTimeFilename, at)
	assert.Equal(t, "exports/42/2024/03/10/abc-transacoes_totais.csv", object)

	uri := URI("bucket", object)
	bucket, got, err := ParseURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, object, got)
	assert.Equal(t, "abc-transacoes_totais.csv", FilenameFromURI(uri))
}

func TestParseURI_Invalid(t *testing.T) {
	for _, uri := range []string{"s3://b/o", "gs://bucket", "gs://bucket/", "gs:///obj"} {
		_, _, err := ParseURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestArchiver_Handle(t *testing.T) {
	ledger := &mockLedger{
		ListTransactionsFunc: func(context.Context, string, time.Time) ([]*domain.Transaction, error) {
			return sampleTransactions(), nil
		},
	}
	storage := &mockStorage{}
	a := NewArchiver(ledger, storage, "archive", zerolog.Nop())
	a.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }

	job := &jobs.ExportJob{JobID: "j1", UserID: "u1"}
	require.NoError(t, a.Handle(context.Background(), job))

	assert.Equal(t, "gs://archive/exports/u1/2024/05/02/j1-transacoes_totais.csv", job.ObjectURI)
	assert.Equal(t, 2, job.Rows)

	data, err := storage.Fetch(context.Background(), job.ObjectURI)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
}

func TestArchiver_NothingToArchive(t *testing.T) {
	storage := &mockStorage{
		UploadFunc: func(context.Context, string, string, string, []byte) error {
			t.Fatal("upload must not be called")
			return nil
		},
	}
	a := NewArchiver(&mockLedger{}, storage, "archive", zerolog.Nop())

	job := &jobs.ExportJob{JobID: "j1", UserID: "u1"}
	require.NoError(t, a.Handle(context.Background(), job))
	assert.Empty(t, job.ObjectURI)
}

func TestArchiver_UploadError(t *testing.T) {
	ledger := &mockLedger{
		ListTransactionsFunc: func(context.Context, string, time.Time) ([]*domain.Transaction, error) {
			return sampleTransactions(), nil
		},
	}
	storage := &mockStorage{
		UploadFunc: func(context.Context, string, string, string, []byte) error {
			return errors.New("permission denied")
		},
	}
	a := NewArchiver(ledger, storage, "archive", zerolog.Nop())

	err := a.Handle(context.Background(), &jobs.ExportJob{JobID: "j1", UserID: "u1"})
	assert.ErrorContains(t, err, "permission denied")
}
