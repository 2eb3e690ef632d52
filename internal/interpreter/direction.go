package interpreter

import (
	"strings"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/shopspring/decimal"
)

var expenseKeywords = []string{"gastei", "paguei", "pago", "gasto", "comprei", "compras"}

var incomeKeywords = []string{
	"recebi", "ganhei", "salário", "salario", "bônus", "bonus",
	"entrada", "ganho", "deposito", "depósito",
}

// ClassifyDirection decides whether the number described by w is income or
// expense and returns amount signed accordingly.
//
// Expense keywords beat income keywords, and both beat the sign of the
// number. The clause is searched first, then the whole window; only when
// neither has a keyword does the parsed sign decide (negative = expense),
// and in that case amount is returned unchanged.
func ClassifyDirection(w Window, amount decimal.Decimal) (domain.Direction, decimal.Decimal) {
	for _, surface := range []string{w.Clause, w.Text} {
		if containsAny(surface, expenseKeywords) {
			return domain.DirectionExpense, amount.Abs().Neg()
		}
		if containsAny(surface, incomeKeywords) {
			return domain.DirectionIncome, amount.Abs()
		}
	}
	return domain.DirectionOf(amount), amount
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
