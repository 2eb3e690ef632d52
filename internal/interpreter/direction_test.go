package interpreter

import (
	"testing"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDirection(t *testing.T) {
	tests := []struct {
		name       string
		window     Window
		amount     string
		wantDir    domain.Direction
		wantAmount string
	}{
		{
			name:       "expense keyword forces negative",
			window:     Window{Text: "gastei 50 no mercado", Clause: "gastei 50 no mercado"},
			amount:     "50",
			wantDir:    domain.DirectionExpense,
			wantAmount: "-50",
		},
		{
			name:       "income keyword forces positive",
			window:     Window{Text: "recebi -50", Clause: "recebi -50"},
			amount:     "-50",
			wantDir:    domain.DirectionIncome,
			wantAmount: "50",
		},
		{
			name:       "expense beats income in the same clause",
			window:     Window{Text: "paguei e recebi 40", Clause: "paguei e recebi 40"},
			amount:     "40",
			wantDir:    domain.DirectionExpense,
			wantAmount: "-40",
		},
		{
			name:       "clause beats the rest of the window",
			window:     Window{Text: "paguei 30 e recebi 200", Clause: " e recebi 200"},
			amount:     "200",
			wantDir:    domain.DirectionIncome,
			wantAmount: "200",
		},
		{
			name:       "expense later in the clause beats an earlier income verb",
			window:     Window{Text: "recebi 40 e paguei", Clause: "recebi 40 e paguei"},
			amount:     "40",
			wantDir:    domain.DirectionExpense,
			wantAmount: "-40",
		},
		{
			name:       "expense participle beats income noun",
			window:     Window{Text: "salário 5000 pago ontem", Clause: "salário 5000 pago ontem"},
			amount:     "5000",
			wantDir:    domain.DirectionExpense,
			wantAmount: "-5000",
		},
		{
			name:       "window used when clause has no keyword",
			window:     Window{Text: "gastei 50 no mercado e 30 na farmacia", Clause: " no mercado e 30 na farmacia"},
			amount:     "30",
			wantDir:    domain.DirectionExpense,
			wantAmount: "-30",
		},
		{
			name:       "non-negative sign fallback",
			window:     Window{Text: "40", Clause: "40"},
			amount:     "40",
			wantDir:    domain.DirectionIncome,
			wantAmount: "40",
		},
		{
			name:       "negative sign fallback",
			window:     Window{Text: "-40", Clause: "-40"},
			amount:     "-40",
			wantDir:    domain.DirectionExpense,
			wantAmount: "-40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, amount := ClassifyDirection(tt.window, decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantAmount, amount.String())
		})
	}
}
