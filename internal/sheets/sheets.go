// Package sheets exports a user's ledger to a Google spreadsheet.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"telegram-finance-bot/internal/models"
)

// Exporter writes the ledger to the "Dados" tab and a summary to "Resumo".
type Exporter struct {
	svc *sheets.Service
}

// New builds the Sheets client from a service-account credentials file.
func New(ctx context.Context, credentialsPath string) (*Exporter, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{svc: svc}, nil
}

func (x *Exporter) Export(ctx context.Context, spreadsheetID string, entries []models.Entry, totals models.Totals) error {
	rows := [][]any{{"ID", "Tipo", "Valor", "Horas", "Categoria", "Data", "Descrição"}}
	for _, e := range entries {
		var amount, hours any
		switch e.Type {
		case models.TypeSalary, models.TypeExpense:
			amount = e.Amount
		default:
			hours = e.Hours
		}
		date := e.EventDate
		if date == "" {
			date = e.CreatedAt
		}
		rows = append(rows, []any{e.ID, string(e.Type), amount, hours, e.Category, date, e.Description})
	}
	if err := x.update(ctx, spreadsheetID, "Dados!A1", rows); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}

	summary := [][]any{
		{"Resumo Financeiro"},
		{"Salários", totals.Salary},
		{"Gastos", totals.Expense},
		{"Horas Extra", totals.OvertimeHours},
		{"Folgas", totals.LeaveHours},
	}
	if err := x.update(ctx, spreadsheetID, "Resumo!A1", summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func (x *Exporter) update(ctx context.Context, spreadsheetID, rangeA1 string, values [][]any) error {
	_, err := x.svc.Spreadsheets.Values.
		Update(spreadsheetID, rangeA1, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
