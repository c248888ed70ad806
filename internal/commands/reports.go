package commands

import (
	"errors"
	"fmt"
	"strings"

	"telegram-finance-bot/internal/analytics"
	"telegram-finance-bot/internal/models"
)

// monthlyWorkHours estimates the hourly rate from salary: 220 worked
// hours per month, the CLT reference.
const monthlyWorkHours = 220

func hourlyRate(salary float64) float64 {
	if salary == 0 {
		return 0
	}
	return salary / monthlyWorkHours
}

func (d *Dispatcher) handleReport(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	totals := analytics.Totals(entries)
	overtimeValue := totals.OvertimeHours * hourlyRate(totals.Salary)
	net := totals.Salary + overtimeValue - totals.Expense

	mood := "🤓"
	if net > totals.Salary*0.9 {
		mood = "😁 Ótimo desempenho!"
	}
	if net < totals.Salary*0.5 {
		mood = "🥲 Precisamos cortar gastos."
	}

	lines := []string{
		"📊 Relatório Financeiro",
		"Salários: " + formatCurrency(totals.Salary),
		"Gastos: " + formatCurrency(totals.Expense),
		fmt.Sprintf("Horas Extra: %.2fh (~%s)", totals.OvertimeHours, formatCurrency(overtimeValue)),
		fmt.Sprintf("Folgas: %g", totals.LeaveHours),
		"Saldo Líquido: " + formatCurrency(net),
		mood,
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (d *Dispatcher) handleMonthlyReport(phone string, parts []string) Reply {
	if len(parts) < 2 || !validMonth(parts[1]) {
		return Reply{Text: "⚠️ Use: !relatoriomes AAAA-MM"}
	}
	month := parts[1]
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	user, err := d.store.GetUser(phone)
	if err != nil || user == nil {
		return d.storeFail("read user", err)
	}

	totals := analytics.MonthlyTotals(entries, month)

	// A fixed monthly salary, when set, replaces whatever was logged.
	override, err := d.store.GetMonthlySalary(phone, month)
	if err != nil {
		return d.storeFail("read monthly salary", err)
	}
	if override > 0 {
		totals.Salary = override
	}

	overtimeValue := totals.OvertimeHours * hourlyRate(totals.Salary)
	net := totals.Salary + overtimeValue - totals.Expense

	goalText := "Sem meta definida"
	if user.TargetIncome > 0 {
		status := "✅ atingida"
		if net < user.TargetIncome {
			status = "⏳ faltam " + formatCurrency(user.TargetIncome-net)
		}
		goalText = fmt.Sprintf("Meta: %s (%s)", formatCurrency(user.TargetIncome), status)
	}

	overtime := analytics.MonthlyHoursByDay(entries, month, models.TypeOvertime)
	leaves := analytics.MonthlyHoursByDay(entries, month, models.TypeLeave)
	workdays := analytics.MonthlyHoursByDay(entries, month, models.TypeWorkday)

	var workdaysTotal, leavesTotal float64
	for _, w := range workdays {
		workdaysTotal += w.Hours
	}
	for _, l := range leaves {
		leavesTotal += l.Hours
	}

	lines := []string{
		"🗓️ Relatório de " + month,
		"Salários: " + formatCurrency(totals.Salary),
		"Gastos: " + formatCurrency(totals.Expense),
		fmt.Sprintf("Horas Extra: %.2fh (~%s)", totals.OvertimeHours, formatCurrency(overtimeValue)),
		"Saldo Líquido: " + formatCurrency(net),
		goalText,
		"",
		fmt.Sprintf("🏦 Banco de Folgas (mês): crédito %gd, débito %gd, saldo %gd",
			workdaysTotal, leavesTotal, workdaysTotal-leavesTotal),
		"",
		"🧱 Dias Trabalhados:",
	}
	lines = append(lines, dayLines(workdays, func(x models.DayHours) string {
		return fmt.Sprintf("  • %s (+%gd)", x.Day, x.Hours)
	}, "  • Sem registros de dias trabalhados")...)
	lines = append(lines, "", "⏱️ Horas Extra por dia:")
	lines = append(lines, dayLines(overtime, func(x models.DayHours) string {
		return fmt.Sprintf("  • %s: %.2fh", x.Day, x.Hours)
	}, "  • Sem horas extras registradas")...)
	lines = append(lines, "", "🌴 Folgas:")
	lines = append(lines, dayLines(leaves, func(x models.DayHours) string {
		return fmt.Sprintf("  • %s (%g dia)", x.Day, x.Hours)
	}, "  • Sem folgas registradas")...)

	return Reply{Text: strings.Join(lines, "\n")}
}

func dayLines(days []models.DayHours, render func(models.DayHours) string, empty string) []string {
	if len(days) == 0 {
		return []string{empty}
	}
	out := make([]string, len(days))
	for i, x := range days {
		out[i] = render(x)
	}
	return out
}

func (d *Dispatcher) handleCategoryBreakdown(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	breakdown := analytics.CategoryBreakdown(entries, "")
	if len(breakdown) == 0 {
		return Reply{Text: "📂 Nenhum gasto com categoria registrado ainda."}
	}
	var total float64
	for _, c := range breakdown {
		total += c.Total
	}
	lines := []string{"📊 Gastos por Categoria:"}
	for _, c := range breakdown {
		pct := 0.0
		if total > 0 {
			pct = c.Total / total * 100
		}
		lines = append(lines, fmt.Sprintf("  • %s: %s (%.1f%%)", c.Category, formatCurrency(c.Total), pct))
	}
	lines = append(lines, "", "Total: "+formatCurrency(total))
	return Reply{Text: strings.Join(lines, "\n")}
}

func (d *Dispatcher) handleForecast(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	f, err := analytics.ForecastNextMonth(entries)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientHistory) {
			return Reply{Text: "⚠️ " + err.Error()}
		}
		return d.storeFail("forecast", err)
	}
	unit := "meses"
	if f.MonthsUsed == 1 {
		unit = "mês"
	}
	lines := []string{
		"🔮 Previsão para o próximo mês:",
		"Salário estimado: " + formatCurrency(f.Salary),
		"Gastos estimados: " + formatCurrency(f.Expense),
		"Saldo líquido previsto: " + formatCurrency(f.Net),
		"",
		fmt.Sprintf("📌 Baseado na média móvel de %d %s.", f.MonthsUsed, unit),
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (d *Dispatcher) handleHistorical(phone string, parts []string) Reply {
	if len(parts) < 3 {
		return Reply{Text: "⚠️ Use: !historico AAAA-MM AAAA-MM"}
	}
	start, end := parts[1], parts[2]
	if !validMonth(start) || !validMonth(end) {
		return Reply{Text: "⚠️ Datas inválidas. Formato AAAA-MM."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	series := analytics.HistoricalSeries(entries, start, end)
	if len(series) == 0 {
		return Reply{Text: "📂 Nenhum dado histórico encontrado para o período."}
	}
	lines := []string{"📈 Histórico Financeiro:"}
	for _, p := range series {
		lines = append(lines, fmt.Sprintf("  • %s: Salário %s, Gastos %s, Líquido %s",
			p.Month, formatCurrency(p.Salary), formatCurrency(p.Expense), formatCurrency(p.Net)))
	}
	return Reply{Text: strings.Join(lines, "\n")}
}
