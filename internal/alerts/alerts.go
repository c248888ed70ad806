// Package alerts runs the post-expense threshold checks.
package alerts

import (
	"fmt"

	"telegram-finance-bot/internal/models"
)

// Config carries the user's spend thresholds. Zero disables a check.
type Config struct {
	MaxExpensePercent float64
	MaxExpenseValue   float64
}

// Evaluate runs the three independent checks once, right after an expense
// write, against the already-updated totals. catLimit is nil when the
// entry had no category or no limit is set; catMonthTotal is the
// month-to-date total for that category including the new entry. Checks
// re-fire on every qualifying write; there is no suppression.
func Evaluate(totals models.Totals, cfg Config, category string, catLimit *float64, catMonthTotal float64) []string {
	var out []string

	if cfg.MaxExpensePercent > 0 && totals.Salary > 0 {
		pct := totals.Expense / totals.Salary * 100
		if pct >= cfg.MaxExpensePercent {
			out = append(out, fmt.Sprintf(
				"🚨 Alerta! Gastos já em %.1f%% do salário (limite %.0f%%).",
				pct, cfg.MaxExpensePercent))
		}
	}

	if cfg.MaxExpenseValue > 0 && totals.Expense >= cfg.MaxExpenseValue {
		out = append(out, fmt.Sprintf(
			"🚨 Alerta! Total de gastos atingiu R$ %.2f (limite R$ %.2f).",
			totals.Expense, cfg.MaxExpenseValue))
	}

	if catLimit != nil && catMonthTotal >= *catLimit {
		out = append(out, fmt.Sprintf(
			"🚨 Limite da categoria %q excedido no mês (R$ %.2f de R$ %.2f).",
			category, catMonthTotal, *catLimit))
	}

	return out
}
