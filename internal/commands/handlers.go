package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-finance-bot/internal/alerts"
	"telegram-finance-bot/internal/analytics"
	"telegram-finance-bot/internal/models"
)

func formatCurrency(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

// parseAmount accepts both decimal separators ("25.5" and "25,5").
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

func (d *Dispatcher) handleSalary(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !salario VALOR (ex: !salario 4500)"}
	}
	value, ok := parseAmount(parts[1])
	if !ok || value <= 0 {
		return Reply{Text: "⚠️ Use: !salario VALOR (ex: !salario 4500)"}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if _, err := d.store.AddEntry(&models.Entry{
		Phone:       phone,
		Type:        models.TypeSalary,
		Amount:      value,
		Description: "Salário registrado",
	}); err != nil {
		return d.storeFail("add salary entry", err)
	}
	if err := d.store.SetLastSalary(phone, value); err != nil {
		return d.storeFail("set last salary", err)
	}

	mood := "🚀 Primeiro salário registrado! Rumo ao topo!"
	if lastTwo, err := d.store.LastTwoSalaries(phone); err == nil && len(lastTwo) == 2 {
		diff := lastTwo[0].Amount - lastTwo[1].Amount
		switch {
		case diff > 0:
			mood = fmt.Sprintf("🔥 UAU! Subiu %s!", formatCurrency(diff))
		case diff < 0:
			mood = fmt.Sprintf("😔 Caiu %s… vamos melhorar!", formatCurrency(-diff))
		default:
			mood = "😐 Igual ao anterior. Vamos buscar crescimento!"
		}
	}
	d.publish(ctx, phone)
	return Reply{Text: fmt.Sprintf("%s\nSalário atual salvo: %s", mood, formatCurrency(value))}
}

func (d *Dispatcher) handleExpense(ctx context.Context, phone string, parts []string) Reply {
	const usage = "⚠️ Use: !gasto VALOR DESCRIÇÃO [#categoria]"
	if len(parts) < 2 {
		return Reply{Text: usage}
	}
	value, ok := parseAmount(parts[1])
	if !ok || value <= 0 {
		return Reply{Text: usage}
	}
	descParts := parts[2:]
	category := ""
	if n := len(descParts); n > 0 && strings.HasPrefix(descParts[n-1], "#") {
		category = strings.ToLower(strings.TrimPrefix(descParts[n-1], "#"))
		descParts = descParts[:n-1]
	}
	description := strings.Join(descParts, " ")
	if description == "" {
		description = "Gasto"
	}

	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if _, err := d.store.AddEntry(&models.Entry{
		Phone:       phone,
		Type:        models.TypeExpense,
		Amount:      value,
		Description: description,
		Category:    category,
	}); err != nil {
		return d.storeFail("add expense entry", err)
	}

	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	totals := analytics.Totals(entries)

	user, err := d.store.GetUser(phone)
	if err != nil || user == nil {
		return d.storeFail("read user", err)
	}
	cfg := alerts.Config{
		MaxExpensePercent: user.MaxExpensePercent,
		MaxExpenseValue:   user.MaxExpenseValue,
	}

	var catLimit *float64
	var catMonthTotal float64
	if category != "" {
		catLimit, err = d.store.GetCategoryLimit(phone, category)
		if err != nil {
			return d.storeFail("read category limit", err)
		}
		month := d.now().Format("2006-01")
		for _, c := range analytics.CategoryBreakdown(entries, month) {
			if c.Category == category {
				catMonthTotal = c.Total
				break
			}
		}
	}

	reply := fmt.Sprintf("💸 Gasto registrado: %s (%s)", formatCurrency(value), description)
	if category != "" {
		reply += fmt.Sprintf(" [%s]", category)
	}
	for _, a := range alerts.Evaluate(totals, cfg, category, catLimit, catMonthTotal) {
		reply += "\n" + a
	}
	d.publish(ctx, phone)
	return Reply{Text: reply}
}

func (d *Dispatcher) handleOvertime(ctx context.Context, phone string, parts []string) Reply {
	const usage = "⚠️ Use: !horaextra HORAS [AAAA-MM-DD]"
	if len(parts) < 2 {
		return Reply{Text: usage}
	}
	hours, ok := parseAmount(parts[1])
	if !ok || hours <= 0 {
		return Reply{Text: usage}
	}
	dateStr := ""
	if len(parts) >= 3 {
		dateStr = parts[2]
		if !validDate(dateStr) {
			return Reply{Text: "⚠️ Data inválida. Formato AAAA-MM-DD."}
		}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	desc := "Horas extras"
	if dateStr != "" {
		desc += " em " + dateStr
	}
	if _, err := d.store.AddEntry(&models.Entry{
		Phone:       phone,
		Type:        models.TypeOvertime,
		Hours:       hours,
		Description: desc,
		EventDate:   dateStr,
	}); err != nil {
		return d.storeFail("add overtime entry", err)
	}
	d.publish(ctx, phone)
	text := fmt.Sprintf("⏱️ Horas extras registradas: %.2fh", hours)
	if dateStr != "" {
		text += " em " + dateStr
	}
	return Reply{Text: text}
}

func (d *Dispatcher) handleLeave(ctx context.Context, phone string, parts []string) Reply {
	dateStr := d.now().Format("2006-01-02")
	if len(parts) >= 2 {
		dateStr = parts[1]
	}
	if !validDate(dateStr) {
		return Reply{Text: "⚠️ Use: !folga [AAAA-MM-DD]"}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if _, err := d.store.AddEntry(&models.Entry{
		Phone:       phone,
		Type:        models.TypeLeave,
		Hours:       1,
		Description: "Folga em " + dateStr,
		EventDate:   dateStr,
	}); err != nil {
		return d.storeFail("add leave entry", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: "🌴 Folga registrada para " + dateStr}
}

func (d *Dispatcher) handleWorked(ctx context.Context, phone string, parts []string) Reply {
	dateStr := d.now().Format("2006-01-02")
	if len(parts) >= 2 {
		dateStr = parts[1]
	}
	if !validDate(dateStr) {
		return Reply{Text: "⚠️ Use: !trabalhei [AAAA-MM-DD]"}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if _, err := d.store.AddEntry(&models.Entry{
		Phone:       phone,
		Type:        models.TypeWorkday,
		Hours:       1,
		Description: "Dia trabalhado " + dateStr,
		EventDate:   dateStr,
	}); err != nil {
		return d.storeFail("add workday entry", err)
	}
	d.publish(ctx, phone)

	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	bank := analytics.LeaveBank(entries)
	return Reply{Text: fmt.Sprintf(
		"🧱 Dia trabalhado registrado em %s. Banco de folgas: crédito %gd, débito %gd, saldo %gd.",
		dateStr, bank.Credit, bank.Debit, bank.Balance)}
}

func (d *Dispatcher) handleLeaveBank(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	entries, err := d.store.GetEntries(phone)
	if err != nil {
		return d.storeFail("read entries", err)
	}
	bank := analytics.LeaveBank(entries)
	return Reply{Text: fmt.Sprintf(
		"🏦 Banco de folgas -> Crédito: %gd | Débito: %gd | Saldo: %gd",
		bank.Credit, bank.Debit, bank.Balance)}
}
