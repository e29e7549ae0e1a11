package model

import "strings"

const (
	// CategoryOthers is the sentinel for descriptions no rule matched.
	CategoryOthers = "Others"
	// CategoryATMWithdrawal marks cash withdrawals the reconciler links to spending.
	CategoryATMWithdrawal = "ATM Withdrawal"
)

// Categories is the controlled category vocabulary.
var Categories = []string{
	"Salary",
	"Cashback",
	"Refund",
	"Dividend",
	"Interest",
	"Loan",
	"Investments",
	"Rent",
	"Bills",
	"Groceries",
	"Fruits & Vegetables",
	"Food & Dining",
	"Household",
	"Personal Care",
	"Egg & Meat",
	"Shopping",
	"Travel",
	"Health",
	"Entertainment",
	"Donation",
	"Gifts",
	"Productivity",
	"Misc",
	"Maintenance",
	"Life Style",
	"Fuel",
	CategoryATMWithdrawal,
	CategoryOthers,
}

// categoryAliases maps the short codes used in hand-maintained sheets.
var categoryAliases = map[string]string{
	"sal":       "Salary",
	"cb":        "Cashback",
	"ref":       "Refund",
	"div":       "Dividend",
	"int":       "Interest",
	"inv":       "Investments",
	"bil":       "Bills",
	"gro":       "Groceries",
	"fv":        "Fruits & Vegetables",
	"fd":        "Food & Dining",
	"hh":        "Household",
	"pc":        "Personal Care",
	"em":        "Egg & Meat",
	"shop":      "Shopping",
	"tv":        "Travel",
	"et":        "Entertainment",
	"dt":        "Donation",
	"pv":        "Productivity",
	"ot":        "Others",
	"mt":        "Maintenance",
	"lifestyle": "Life Style",
	"ls":        "Life Style",
	"f":         "Fuel",
	"atm":       CategoryATMWithdrawal,
}

// Vocabulary resolves category names and aliases case-insensitively.
type Vocabulary struct {
	names map[string]string
}

// NewVocabulary builds the default vocabulary plus any extra category names.
func NewVocabulary(extra ...string) *Vocabulary {
	v := &Vocabulary{names: make(map[string]string)}
	for _, c := range Categories {
		v.names[strings.ToLower(c)] = c
	}
	for alias, c := range categoryAliases {
		v.names[alias] = c
	}
	for _, c := range extra {
		c = strings.TrimSpace(c)
		if c != "" {
			v.names[strings.ToLower(c)] = c
		}
	}
	return v
}

// Resolve returns the canonical category for name, or false if it is not in the vocabulary.
func (v *Vocabulary) Resolve(name string) (string, bool) {
	c, ok := v.names[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}
