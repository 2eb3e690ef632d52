package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTotals_Add(t *testing.T) {
	var totals Totals
	for _, a := range []string{"100", "-30.5", "0", "-20"} {
		totals.Add(decimal.RequireFromString(a))
	}

	assert.Equal(t, "100", totals.Income.String())
	assert.Equal(t, "50.5", totals.Expense.String())
	assert.Equal(t, 4, totals.Count)
	assert.Equal(t, "49.5", totals.Net().String())
}

func TestNormalizeWord(t *testing.T) {
	assert.Equal(t, "mercado", NormalizeWord("  Mercado "))
	assert.Equal(t, "ônibus", NormalizeWord("ÔNIBUS"))
	assert.Equal(t, "", NormalizeWord("   "))
}

func TestStartOfMonth(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	got := StartOfMonth(time.Date(2024, 3, 31, 22, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), got)
}
