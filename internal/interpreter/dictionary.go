package interpreter

// CategoryRule maps a category to the words and phrases that trigger it.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// Rules are tried in declaration order; the first rule whose keyword
// appears in the window wins.
var (
	ExpenseRules = []CategoryRule{
		{Name: "alimentação", Keywords: []string{"mercado", "supermercado", "restaurante", "almoço", "lanchonete", "fastfood", "resto"}},
		{Name: "transporte", Keywords: []string{"uber", "taxi", "ônibus", "onibus", "combustivel", "combustível", "gasolina", "metrô", "metro"}},
		{Name: "moradia", Keywords: []string{"aluguel", "condomínio", "condominio", "iptu"}},
		{Name: "saúde", Keywords: []string{"remédio", "medicamento", "farmácia", "farmacia", "consulta"}},
		{Name: "lazer", Keywords: []string{"cinema", "bar", "show", "lazer"}},
		{Name: "cartão de crédito", Keywords: []string{"cartão", "cartao", "credito", "crédito"}},
	}

	IncomeRules = []CategoryRule{
		{Name: "salário", Keywords: []string{"salário", "salario"}},
		{Name: "outros", Keywords: []string{"bonus", "bônus", "presente", "devolução"}},
	}
)
