package commands

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"telegram-finance-bot/internal/storage"
)

func (d *Dispatcher) handleGoal(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !meta VALOR (ex: !meta 6000)"}
	}
	value, ok := parseAmount(parts[1])
	if !ok || value <= 0 {
		return Reply{Text: "⚠️ Use: !meta VALOR (ex: !meta 6000)"}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.SetGoal(phone, value); err != nil {
		return d.storeFail("set goal", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: fmt.Sprintf("🎯 Meta líquida definida em %s! Vamos superar!", formatCurrency(value))}
}

func (d *Dispatcher) handleMonthlySalary(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 3 {
		return Reply{Text: "⚠️ Use: !salario_mes AAAA-MM VALOR"}
	}
	month := parts[1]
	if !validMonth(month) {
		return Reply{Text: "⚠️ Mês inválido. Formato AAAA-MM"}
	}
	value, ok := parseAmount(parts[2])
	if !ok || value <= 0 {
		return Reply{Text: "⚠️ Valor inválido."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.SetMonthlySalary(phone, month, value); err != nil {
		return d.storeFail("set monthly salary", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: fmt.Sprintf("💼 Salário mensal de %s definido em %s.", month, formatCurrency(value))}
}

func (d *Dispatcher) handleAlertConfig(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 3 {
		return Reply{Text: "⚠️ Use: !alerta pct VALOR | !alerta valor VALOR"}
	}
	kind := strings.ToLower(parts[1])
	value, ok := parseAmount(parts[2])
	if !ok || value <= 0 {
		return Reply{Text: "⚠️ Valor inválido."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	switch kind {
	case "pct":
		if err := d.store.SetExpensePercent(phone, value); err != nil {
			return d.storeFail("set percent alert", err)
		}
		d.publish(ctx, phone)
		return Reply{Text: fmt.Sprintf("🔔 Alerta definido: gastos não devem ultrapassar %g%% do salário.", value)}
	case "valor":
		if err := d.store.SetExpenseValue(phone, value); err != nil {
			return d.storeFail("set value alert", err)
		}
		d.publish(ctx, phone)
		return Reply{Text: fmt.Sprintf("🔔 Alerta definido: gastos não devem ultrapassar %s.", formatCurrency(value))}
	}
	return Reply{Text: "⚠️ Tipo inválido. Use pct ou valor."}
}

func (d *Dispatcher) handleNotifications(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 3 {
		return Reply{Text: "⚠️ Use: !notificar diaria|semanal sim|nao"}
	}
	kind := strings.ToLower(parts[1])
	enable := strings.ToLower(parts[2]) == "sim"

	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	user, err := d.store.GetUser(phone)
	if err != nil || user == nil {
		return d.storeFail("read user", err)
	}
	switch kind {
	case "diaria":
		if err := d.store.SetNotifications(phone, enable, user.NotifyWeekly); err != nil {
			return d.storeFail("set notifications", err)
		}
		d.publish(ctx, phone)
		if enable {
			return Reply{Text: "🔔 Notificações diárias ativadas! (8h da manhã)"}
		}
		return Reply{Text: "🔕 Notificações diárias desativadas."}
	case "semanal":
		if err := d.store.SetNotifications(phone, user.NotifyDaily, enable); err != nil {
			return d.storeFail("set notifications", err)
		}
		d.publish(ctx, phone)
		if enable {
			return Reply{Text: "🔔 Notificações semanais ativadas! (Segundas às 9h)"}
		}
		return Reply{Text: "🔕 Notificações semanais desativadas."}
	}
	return Reply{Text: "⚠️ Tipo inválido. Use diaria ou semanal."}
}

func (d *Dispatcher) handleCategoryLimit(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 3 {
		return Reply{Text: "⚠️ Use: !limite_categoria CATEGORIA VALOR"}
	}
	category := strings.ToLower(parts[1])
	value, ok := parseAmount(parts[2])
	if !ok || value <= 0 {
		return Reply{Text: "⚠️ Valor inválido."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.SetCategoryLimit(phone, category, value); err != nil {
		return d.storeFail("set category limit", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: fmt.Sprintf("📌 Limite de gastos para categoria %q definido em %s.", category, formatCurrency(value))}
}

func (d *Dispatcher) handleCategoryLimits(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	limits, err := d.store.ListCategoryLimits(phone)
	if err != nil {
		return d.storeFail("list category limits", err)
	}
	if len(limits) == 0 {
		return Reply{Text: "📂 Nenhum limite de categoria definido ainda."}
	}
	lines := []string{"🗂️ Limites por Categoria:"}
	for _, l := range limits {
		lines = append(lines, fmt.Sprintf("  • %s: %s", l.Category, formatCurrency(l.LimitValue)))
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (d *Dispatcher) handleLanguage(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !idioma pt|en"}
	}
	lang := strings.ToLower(parts[1])
	if lang != "pt" && lang != "en" {
		return Reply{Text: "⚠️ Idioma inválido. Use pt ou en."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.UpdateUserPrefs(phone, storage.PrefPatch{Language: &lang}); err != nil {
		return d.storeFail("set language", err)
	}
	d.publish(ctx, phone)
	name := "Português"
	if lang == "en" {
		name = "English"
	}
	return Reply{Text: "🌐 Idioma definido para " + name + "."}
}

func (d *Dispatcher) handlePrefs(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	user, err := d.store.GetUser(phone)
	if err != nil || user == nil {
		return d.storeFail("read user", err)
	}
	watchlist, err := d.store.CryptoWatchlist(phone)
	if err != nil {
		return d.storeFail("read watchlist", err)
	}
	onOff := func(b bool, on, off string) string {
		if b {
			return on
		}
		return off
	}
	cryptos := "nenhuma"
	if len(watchlist) > 0 {
		cryptos = strings.Join(watchlist, ", ")
	}
	lines := []string{
		"⚙️ Preferências:",
		"Idioma: " + user.Language,
		"Timezone: " + user.Timezone,
		fmt.Sprintf("Hora notificações padrão: %dh", user.NotifyHour),
		"Insights semanais: " + onOff(user.InsightEnabled, "ativados", "desativados"),
		fmt.Sprintf("Briefing de mercado: %s às %dh",
			onOff(user.MorningBriefOn, "ativado", "desativado"), user.MorningBriefHour),
		"Criptos: " + cryptos,
		"",
		"Alterar idioma: !idioma pt|en",
		"Alterar hora diária: !hora_notificar HORA",
		"Ativar/desativar insights: !insight sim|nao",
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (d *Dispatcher) handleNotifyHour(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !hora_notificar HORA(0-23)"}
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 0 || h > 23 {
		return Reply{Text: "⚠️ Hora inválida. Use 0-23."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.UpdateUserPrefs(phone, storage.PrefPatch{NotifyHour: &h}); err != nil {
		return d.storeFail("set notify hour", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: fmt.Sprintf("⏰ Hora das notificações diárias ajustada para %d:00.", h)}
}

func (d *Dispatcher) handleInsightToggle(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !insight sim|nao"}
	}
	flag := strings.ToLower(parts[1])
	if flag != "sim" && flag != "nao" {
		return Reply{Text: "⚠️ Valor inválido. Use sim ou nao."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	enabled := flag == "sim"
	if err := d.store.UpdateUserPrefs(phone, storage.PrefPatch{InsightEnabled: &enabled}); err != nil {
		return d.storeFail("set insight toggle", err)
	}
	d.publish(ctx, phone)
	if enabled {
		return Reply{Text: "🧠 Insights semanais ativados."}
	}
	return Reply{Text: "🧠 Insights semanais desativados."}
}

func (d *Dispatcher) handleBriefingToggle(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !briefing sim|nao"}
	}
	flag := strings.ToLower(parts[1])
	if flag != "sim" && flag != "nao" {
		return Reply{Text: "⚠️ Valor inválido."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	enabled := flag == "sim"
	if err := d.store.SetMorningBrief(phone, &enabled, nil); err != nil {
		return d.storeFail("set briefing toggle", err)
	}
	d.publish(ctx, phone)
	if enabled {
		return Reply{Text: "📈 Briefing diário ativado."}
	}
	return Reply{Text: "📉 Briefing diário desativado."}
}

func (d *Dispatcher) handleBriefingHour(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !briefing_hora HORA"}
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 0 || h > 23 {
		return Reply{Text: "⚠️ Hora inválida."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.SetMorningBrief(phone, nil, &h); err != nil {
		return d.storeFail("set briefing hour", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: fmt.Sprintf("⏰ Briefing diário agendado para %d:00.", h)}
}

var cryptoSymbolRx = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

func (d *Dispatcher) handleAddCrypto(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !addcripto SYMBOL"}
	}
	symbol := strings.ToUpper(parts[1])
	if !cryptoSymbolRx.MatchString(symbol) {
		return Reply{Text: "⚠️ Símbolo inválido."}
	}
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.AddCryptoSymbol(phone, symbol); err != nil {
		return d.storeFail("add crypto symbol", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: "🪙 Cripto adicionada à sua lista: " + symbol}
}

func (d *Dispatcher) handleRemoveCrypto(ctx context.Context, phone string, parts []string) Reply {
	if len(parts) < 2 {
		return Reply{Text: "⚠️ Use: !rmcripto SYMBOL"}
	}
	symbol := strings.ToUpper(parts[1])
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	if err := d.store.RemoveCryptoSymbol(phone, symbol); err != nil {
		return d.storeFail("remove crypto symbol", err)
	}
	d.publish(ctx, phone)
	return Reply{Text: "🧹 Cripto removida: " + symbol}
}

func (d *Dispatcher) handleListCrypto(phone string) Reply {
	if err := d.store.EnsureUser(phone); err != nil {
		return d.storeFail("ensure user", err)
	}
	watchlist, err := d.store.CryptoWatchlist(phone)
	if err != nil {
		return d.storeFail("read watchlist", err)
	}
	if len(watchlist) == 0 {
		return Reply{Text: "🪙 Nenhuma cripto na sua lista. Use !addcripto BTC"}
	}
	return Reply{Text: "🪙 Sua lista de criptos: " + strings.Join(watchlist, ", ")}
}
