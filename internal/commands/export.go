package commands

import (
	"context"

	"telegram-finance-bot/internal/analytics"
	"telegram-finance-bot/internal/export"
)

func (d *Dispatcher) handleExportCSV(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	if len(entries) == 0 {
		return Reply{Text: "📂 Nada para exportar ainda."}
	}
	data, err := export.CSV(entries)
	if err != nil {
		d.log.Error("csv export failed", "phone", phone, "error", err)
		return Reply{Text: "⚠️ Erro ao gerar o CSV. Tente novamente."}
	}
	return Reply{Media: &Media{
		Data:     data,
		MIME:     "text/csv",
		Filename: "relatorio.csv",
		Caption:  "📄 Exportação CSV",
	}}
}

func (d *Dispatcher) handleExportPDF(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	if len(entries) == 0 {
		return Reply{Text: "📂 Nada para exportar ainda."}
	}
	user, err := d.store.GetUser(phone)
	if err != nil || user == nil {
		return d.storeFail("read user", err)
	}
	totals := analytics.Totals(entries)
	overtimeValue := totals.OvertimeHours * hourlyRate(totals.Salary)
	data, err := export.PDF(export.PDFInput{
		Totals:        totals,
		OvertimeValue: overtimeValue,
		Net:           totals.Salary + overtimeValue - totals.Expense,
		Goal:          user.TargetIncome,
		Entries:       entries,
	})
	if err != nil {
		d.log.Error("pdf export failed", "phone", phone, "error", err)
		return Reply{Text: "⚠️ Erro ao gerar o PDF. Tente novamente."}
	}
	return Reply{Media: &Media{
		Data:     data,
		MIME:     "application/pdf",
		Filename: "relatorio.pdf",
		Caption:  "📊 Relatório PDF",
	}}
}

func (d *Dispatcher) handleExportSheets(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !exportar_sheets SHEETS_ID"}
	}
	if d.sheets == nil {
		return Reply{Text: "⚠️ Exportação para Google Sheets não está configurada."}
	}
	sheetsID := parts[1]
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.SetSheetsID(phone, sheetsID); err != nil {
		return d.storeFail("set sheets id", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	totals := analytics.Totals(entries)
	if err := d.sheets.Export(ctx, sheetsID, entries, totals); err != nil {
		d.log.Warn("sheets export failed", "phone", phone, "error", err)
		return Reply{Text: "⚠️ Erro ao exportar: " + err.Error()}
	}
	d.publish(ctx, phone)
	return Reply{Text: "✅ Dados exportados para Google Sheets!\nID salvo: " + sheetsID}
}
