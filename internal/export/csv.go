// Package export renders a user's ledger as downloadable artifacts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"telegram-finance-bot/internal/models"
)

// CSV renders the full entry list. Amounts and hours are blank for entry
// types that do not carry them.
func CSV(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "type", "amount", "hours", "description", "category", "event_date", "created_at"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		amount, hours := "", ""
		switch e.Type {
		case models.TypeSalary, models.TypeExpense:
			amount = strconv.FormatFloat(e.Amount, 'f', 2, 64)
		default:
			hours = strconv.FormatFloat(e.Hours, 'f', 2, 64)
		}
		rec := []string{
			strconv.FormatInt(e.ID, 10),
			string(e.Type),
			amount,
			hours,
			e.Description,
			e.Category,
			e.EventDate,
			e.CreatedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
