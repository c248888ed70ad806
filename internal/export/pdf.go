package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"telegram-finance-bot/internal/models"
)

// PDFInput is everything the report page needs, precomputed by the caller.
type PDFInput struct {
	Totals        models.Totals
	OvertimeValue float64
	Net           float64
	Goal          float64
	Entries       []models.Entry
}

// PDF renders the financial report: a summary block followed by one line
// per entry.
func PDF(in PDFInput) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, "Relatorio Financeiro", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 12)
	line := func(s string) { doc.CellFormat(0, 7, s, "", 1, "L", false, 0, "") }
	line(fmt.Sprintf("Salarios: R$ %.2f", in.Totals.Salary))
	line(fmt.Sprintf("Gastos: R$ %.2f", in.Totals.Expense))
	line(fmt.Sprintf("Horas Extra: %.2fh (~R$ %.2f)", in.Totals.OvertimeHours, in.OvertimeValue))
	line(fmt.Sprintf("Saldo Liquido: R$ %.2f", in.Net))
	if in.Goal > 0 {
		status := "atingida"
		if in.Net < in.Goal {
			status = fmt.Sprintf("faltam R$ %.2f", in.Goal-in.Net)
		}
		line(fmt.Sprintf("Meta: R$ %.2f (%s)", in.Goal, status))
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 14)
	line("Entradas:")
	doc.SetFont("Helvetica", "", 9)
	for _, e := range in.Entries {
		val := ""
		switch e.Type {
		case models.TypeSalary, models.TypeExpense:
			val = fmt.Sprintf("%.2f", e.Amount)
		default:
			val = fmt.Sprintf("%.2fh", e.Hours)
		}
		line(fmt.Sprintf("%s | %s | %s | %s", e.CreatedAt, e.Type, val, e.Description))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
