package assistant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/store"
)

const (
	msgGreeting       = "Olá! Eu sou seu bot de controle financeiro."
	msgNotUnderstood  = "Não consegui identificar transações. Tente algo como 'Gastei 50 no mercado' ou 'Recebi 500 salário'."
	msgAddExpense     = "Envie sua despesa no formato livre, ex: 'gastei 50 no mercado'"
	msgAddIncome      = "Envie sua receita no formato livre, ex: 'recebi 5000 salário'"
	msgReset          = "Todas as suas transações foram apagadas. Saldo zerado."
	msgNothingExport  = "Nenhuma transação registrada para exportar."
	msgPendingMissing = "Não encontrei essa transação pendente. Envie a mensagem novamente."
	msgPendingExpired = "Essa escolha expirou. Envie a mensagem novamente."
	msgUnknownAction  = "Opção inválida."
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func msgChooseCategory(amount decimal.Decimal, note string) string {
	if note == "" {
		return fmt.Sprintf("Escolha a categoria para: %s", money(amount))
	}
	return fmt.Sprintf("Escolha a categoria para: %s (%s)", money(amount), note)
}

func msgRecorded(n int, balance decimal.Decimal) string {
	return fmt.Sprintf("%d transação(ões) registradas.\nSaldo atual: %s", n, money(balance))
}

func msgCategorized(tx *domain.Transaction, balance decimal.Decimal) string {
	return fmt.Sprintf("%s registrada: %s | %s\nSaldo atual: %s",
		tx.Direction.Label(), money(tx.Amount.Abs()), tx.Category, money(balance))
}

func msgBalance(balance decimal.Decimal) string {
	return fmt.Sprintf("Saldo atual: %s", money(balance))
}

func msgTotalExpense(expense decimal.Decimal) string {
	return fmt.Sprintf("Valor total gasto: %s", money(expense))
}

func msgMonthlyReport(balance decimal.Decimal, month store.Totals) string {
	return fmt.Sprintf("📊 Relatório mensal\nSaldo atual: %s\nReceitas: %s\nDespesas: %s\nNúmero de transações: %d",
		money(balance), money(month.Income), money(month.Expense), month.Count)
}
