package domain

// FallbackCategory is used when a category choice cannot be matched.
const FallbackCategory = "outros"

// CategoryChoice is one of the options offered to the user when a
// transaction could not be categorized automatically.
type CategoryChoice struct {
	Slug  string // stable identifier carried in button payloads
	Label string // button text
	Name  string // category stored on the transaction
}

// CategoryChoices is the fixed, ordered disambiguation menu.
var CategoryChoices = []CategoryChoice{
	{Slug: "alimentacao", Label: "Alimentação", Name: "alimentação"},
	{Slug: "transporte", Label: "Transporte", Name: "transporte"},
	{Slug: "salario", Label: "Salário", Name: "salário"},
	{Slug: "cartao", Label: "Cartão de Crédito", Name: "cartão de crédito"},
	{Slug: "outros", Label: "Outros", Name: FallbackCategory},
}

// ChoiceBySlug returns the category choice with the given slug. Unknown
// slugs resolve to the fallback choice and ok=false.
func ChoiceBySlug(slug string) (choice CategoryChoice, ok bool) {
	for _, c := range CategoryChoices {
		if c.Slug == slug {
			return c, true
		}
	}
	return CategoryChoices[len(CategoryChoices)-1], false
}
