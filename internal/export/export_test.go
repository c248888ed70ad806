package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"telegram-finance-bot/internal/models"
)

func TestCSV(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Type: models.TypeSalary, Amount: 4500, Description: "Salário registrado", CreatedAt: "2025-09-01 09:00:00"},
		{ID: 2, Type: models.TypeExpense, Amount: 25.5, Description: "cafe", Category: "refeicao", CreatedAt: "2025-09-02 09:00:00"},
		{ID: 3, Type: models.TypeOvertime, Hours: 2, Description: "Horas extras", EventDate: "2025-09-03", CreatedAt: "2025-09-03 09:00:00"},
	}
	data, err := CSV(entries)
	if err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want header + 3 rows", len(records))
	}

	// Amount column blank for hour entries, hours column blank for money.
	salary := records[1]
	if salary[2] != "4500.00" || salary[3] != "" {
		t.Errorf("salary row = %v", salary)
	}
	overtime := records[3]
	if overtime[2] != "" || overtime[3] != "2.00" {
		t.Errorf("overtime row = %v", overtime)
	}
	if records[2][5] != "refeicao" {
		t.Errorf("expense row missing category: %v", records[2])
	}
}

func TestCSVEmpty(t *testing.T) {
	data, err := CSV(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Errorf("empty export has %d lines, want header only", got)
	}
}

func TestPDF(t *testing.T) {
	data, err := PDF(PDFInput{
		Totals:        models.Totals{Salary: 4500, Expense: 2000, OvertimeHours: 2},
		OvertimeValue: 40.9,
		Net:           2540.9,
		Goal:          3000,
		Entries: []models.Entry{
			{ID: 1, Type: models.TypeExpense, Amount: 25, Description: "cafe", CreatedAt: "2025-09-02 09:00:00"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", data[:16])
	}
}
