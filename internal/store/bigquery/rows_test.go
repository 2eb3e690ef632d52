package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/saldo-certo/internal/domain"
)

func TestRowRoundTrip(t *testing.T) {
	occurred := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	tx := domain.NewTransaction("u1", decimal.RequireFromString("-1234.56"), "alimentação", "gastei no mercado", occurred)

	row := toRow(tx, occurred)
	assert.Equal(t, "-30864/25", row.Amount.String())
	assert.True(t, row.Note.Valid)
	assert.Equal(t, time.UTC, row.OccurredTS.Location())

	back, err := fromRow(row)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, back.ID)
	assert.Equal(t, "-1234.56", back.Amount.String())
	assert.Equal(t, domain.DirectionExpense, back.Direction)
	assert.Equal(t, "gastei no mercado", back.Note)
	assert.True(t, occurred.Equal(back.OccurredAt))
}

func TestFromRow_UnknownDirection(t *testing.T) {
	tx := domain.NewTransaction("u1", decimal.NewFromInt(-10), "outros", "", time.Now())
	row := toRow(tx, time.Now())
	row.Direction = "refund"

	_, err := fromRow(row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown direction "refund"`)
}

func TestToRow_EmptyNoteIsNull(t *testing.T) {
	tx := domain.NewTransaction("u1", decimal.NewFromInt(40), "outros", "", time.Now())
	assert.False(t, toRow(tx, time.Now()).Note.Valid)
}

func TestRatToDecimal(t *testing.T) {
	got, err := ratToDecimal(nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ratToDecimal(big.NewRat(1, 3))
	require.NoError(t, err)
	assert.Equal(t, "0.333333333", got.String())

	got, err = ratToDecimal(big.NewRat(-50, 1))
	require.NoError(t, err)
	assert.Equal(t, "-50", got.String())
}

func TestTableName(t *testing.T) {
	s := NewWithClient(nil, "proj", "ds")
	assert.Equal(t, "`proj.ds.transactions`", s.table(transactionsTable))
	assert.NoError(t, s.Close())
}

func TestAffectedRows(t *testing.T) {
	assert.Zero(t, affectedRows(nil))
	assert.Zero(t, affectedRows(&bigquery.JobStatus{}))

	status := &bigquery.JobStatus{Statistics: &bigquery.JobStatistics{
		Details: &bigquery.QueryStatistics{NumDMLAffectedRows: 7},
	}}
	assert.EqualValues(t, 7, affectedRows(status))
}

func TestSinceBound(t *testing.T) {
	assert.Equal(t, time.Unix(0, 0).UTC(), sinceBound(time.Time{}))

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))
	assert.True(t, at.Equal(sinceBound(at)))
}
