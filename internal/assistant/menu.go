package assistant

// Action is a main menu entry.
type Action string

const (
	ActionAddExpense    Action = "add_expense"
	ActionAddIncome     Action = "add_income"
	ActionResetAccount  Action = "reset_account"
	ActionShowBalance   Action = "show_balance"
	ActionShowExpense   Action = "show_expense"
	ActionExportCSV     Action = "export_csv"
	ActionMonthlyReport Action = "monthly_report"
)

// MenuItem is a main menu button.
type MenuItem struct {
	Action Action
	Label  string
}

// Menu is the main menu, row by row.
var Menu = [][]MenuItem{
	{{ActionAddExpense, "Adicionar despesa"}, {ActionAddIncome, "Adicionar receita"}},
	{{ActionResetAccount, "Resetar conta"}, {ActionShowBalance, "Saldo (valor atual)"}},
	{{ActionShowExpense, "Valor gasto"}, {ActionExportCSV, "Exportar CSV"}},
	{{ActionMonthlyReport, "Relatório mensal"}},
}

// ParseAction returns the menu action named s.
func ParseAction(s string) (Action, bool) {
	for _, row := range Menu {
		for _, item := range row {
			if string(item.Action) == s {
				return item.Action, true
			}
		}
	}
	return "", false
}
