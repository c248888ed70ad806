package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"telegram-finance-bot/internal/logx"
	"telegram-finance-bot/internal/models"
	"telegram-finance-bot/internal/storage"
)

// fakeStore is an in-memory Store. AddEntry stamps CreatedAt from a fixed
// clock so month-scoped aggregation is deterministic.
type fakeStore struct {
	users       map[string]*models.User
	entries     []models.Entry
	limits      map[string]float64
	monthly     map[string]float64
	watchlist   []string
	nextID      int64
	failEntries bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]*models.User{},
		limits:  map[string]float64{},
		monthly: map[string]float64{},
	}
}

const testToday = "2025-09-15"

func (s *fakeStore) EnsureUser(phone string) error {
	if _, ok := s.users[phone]; !ok {
		s.users[phone] = &models.User{
			Phone: phone, Language: "pt", Timezone: "America/Sao_Paulo", NotifyHour: 8,
		}
	}
	return nil
}

func (s *fakeStore) GetUser(phone string) (*models.User, error) {
	return s.users[phone], nil
}

func (s *fakeStore) UpdateUserPrefs(phone string, p storage.PrefPatch) error {
	u := s.users[phone]
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Timezone != nil {
		u.Timezone = *p.Timezone
	}
	if p.NotifyHour != nil {
		u.NotifyHour = *p.NotifyHour
	}
	if p.InsightEnabled != nil {
		u.InsightEnabled = *p.InsightEnabled
	}
	return nil
}

func (s *fakeStore) SetLastSalary(phone string, v float64) error {
	s.users[phone].LastSalary = v
	return nil
}

func (s *fakeStore) SetGoal(phone string, v float64) error {
	s.users[phone].TargetIncome = v
	return nil
}

func (s *fakeStore) SetExpensePercent(phone string, v float64) error {
	s.users[phone].MaxExpensePercent = v
	return nil
}

func (s *fakeStore) SetExpenseValue(phone string, v float64) error {
	s.users[phone].MaxExpenseValue = v
	return nil
}

func (s *fakeStore) SetNotifications(phone string, daily, weekly bool) error {
	s.users[phone].NotifyDaily = daily
	s.users[phone].NotifyWeekly = weekly
	return nil
}

func (s *fakeStore) SetSheetsID(phone, sheetsID string) error {
	s.users[phone].SheetsID = sheetsID
	return nil
}

func (s *fakeStore) SetMorningBrief(phone string, enabled *bool, hour *int) error {
	if enabled != nil {
		s.users[phone].MorningBriefOn = *enabled
	}
	if hour != nil {
		s.users[phone].MorningBriefHour = *hour
	}
	return nil
}

func (s *fakeStore) AddEntry(e *models.Entry) (int64, error) {
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = testToday + " 10:00:00"
	s.entries = append(s.entries, *e)
	return e.ID, nil
}

func (s *fakeStore) GetEntries(phone string) ([]models.Entry, error) {
	if s.failEntries {
		return nil, errors.New("disk on fire")
	}
	var out []models.Entry
	for _, e := range s.entries {
		if e.Phone == phone {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) LastTwoSalaries(phone string) ([]models.Entry, error) {
	var out []models.Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < 2; i-- {
		if s.entries[i].Phone == phone && s.entries[i].Type == models.TypeSalary {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *fakeStore) SetMonthlySalary(phone, month string, amount float64) error {
	s.monthly[phone+"/"+month] = amount
	return nil
}

func (s *fakeStore) GetMonthlySalary(phone, month string) (float64, error) {
	return s.monthly[phone+"/"+month], nil
}

func (s *fakeStore) SetCategoryLimit(phone, category string, limit float64) error {
	s.limits[phone+"/"+category] = limit
	return nil
}

func (s *fakeStore) GetCategoryLimit(phone, category string) (*float64, error) {
	if v, ok := s.limits[phone+"/"+category]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *fakeStore) ListCategoryLimits(phone string) ([]models.CategoryLimit, error) {
	var out []models.CategoryLimit
	for k, v := range s.limits {
		if strings.HasPrefix(k, phone+"/") {
			out = append(out, models.CategoryLimit{
				Phone: phone, Category: strings.TrimPrefix(k, phone+"/"), LimitValue: v,
			})
		}
	}
	return out, nil
}

func (s *fakeStore) AddCryptoSymbol(phone, symbol string) error {
	s.watchlist = append(s.watchlist, symbol)
	return nil
}

func (s *fakeStore) RemoveCryptoSymbol(phone, symbol string) error {
	var out []string
	for _, x := range s.watchlist {
		if x != symbol {
			out = append(out, x)
		}
	}
	s.watchlist = out
	return nil
}

func (s *fakeStore) CryptoWatchlist(phone string) ([]string, error) {
	return s.watchlist, nil
}

type fakePublisher struct {
	published int
	err       error
}

func (p *fakePublisher) PublishLedgerChanged(ctx context.Context, phone string) error {
	p.published++
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func newTestDispatcher(store *fakeStore, pub *fakePublisher) *Dispatcher {
	d := NewDispatcher(store, pub, nil, logx.Nop())
	d.now = func() time.Time {
		return time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	}
	return d
}

const phone = "5511999999999"

func TestSalaryThenExpenseReport(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	r := d.Dispatch(ctx, phone, "!salario 4500")
	if !strings.Contains(r.Text, "🚀 Primeiro salário") {
		t.Errorf("first salary reply = %q", r.Text)
	}
	if !strings.Contains(r.Text, "R$ 4500.00") {
		t.Errorf("salary reply missing amount: %q", r.Text)
	}

	// Natural-language path goes through the same dispatch.
	r = d.Dispatch(ctx, phone, "gastei 2000 aluguel")
	if !strings.Contains(r.Text, "💸 Gasto registrado: R$ 2000.00 (aluguel)") {
		t.Errorf("expense reply = %q", r.Text)
	}

	r = d.Dispatch(ctx, phone, "!relatorio")
	for _, want := range []string{
		"Salários: R$ 4500.00",
		"Gastos: R$ 2000.00",
		"Saldo Líquido: R$ 2500.00",
	} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("report missing %q:\n%s", want, r.Text)
		}
	}
}

func TestSalaryMood(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!salario 4500")
	r := d.Dispatch(ctx, phone, "!salario 5000")
	if !strings.Contains(r.Text, "🔥 UAU! Subiu R$ 500.00!") {
		t.Errorf("raise mood = %q", r.Text)
	}
	r = d.Dispatch(ctx, phone, "!salario 4000")
	if !strings.Contains(r.Text, "😔 Caiu R$ 1000.00") {
		t.Errorf("drop mood = %q", r.Text)
	}
	r = d.Dispatch(ctx, phone, "!salario 4000")
	if !strings.Contains(r.Text, "😐 Igual ao anterior") {
		t.Errorf("flat mood = %q", r.Text)
	}
}

func TestExpensePercentAlertRefires(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!salario 4500")
	d.Dispatch(ctx, phone, "!alerta pct 50")

	r := d.Dispatch(ctx, phone, "!gasto 2700 reforma")
	if !strings.Contains(r.Text, "🚨 Alerta!") || !strings.Contains(r.Text, "60.0%") {
		t.Errorf("alert missing: %q", r.Text)
	}

	// The condition still holds, so the next expense fires again.
	r = d.Dispatch(ctx, phone, "!gasto 10 cafe")
	if !strings.Contains(r.Text, "🚨 Alerta!") {
		t.Errorf("alert did not re-fire: %q", r.Text)
	}
}

func TestCategoryLimitAlert(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!limite_categoria mercado 300")

	r := d.Dispatch(ctx, phone, "!gasto 350 compras #mercado")
	if !strings.Contains(r.Text, "Limite da categoria \"mercado\" excedido") {
		t.Errorf("category alert missing: %q", r.Text)
	}

	// A different category stays silent.
	r = d.Dispatch(ctx, phone, "!gasto 350 passeio #lazer")
	if strings.Contains(r.Text, "Limite da categoria") {
		t.Errorf("unexpected alert: %q", r.Text)
	}
}

func TestValidationRejectsWithoutMutation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"!salario", "⚠️ Use: !salario VALOR"},
		{"!salario abc", "⚠️ Use: !salario VALOR"},
		{"!salario -5", "⚠️ Use: !salario VALOR"},
		{"!gasto", "⚠️ Use: !gasto VALOR"},
		{"!gasto zero cafe", "⚠️ Use: !gasto VALOR"},
		{"!horaextra", "⚠️ Use: !horaextra HORAS"},
		{"!horaextra 2 2025-13-45", "⚠️ Data inválida"},
		{"!folga 45-45-45", "⚠️ Use: !folga"},
		{"!meta 0", "⚠️ Use: !meta VALOR"},
		{"!relatoriomes 2025-13", "⚠️ Use: !relatoriomes AAAA-MM"},
		{"!hora_notificar 24", "⚠️ Hora inválida"},
		{"!idioma de", "⚠️ Idioma inválido"},
		{"!addcripto b", "⚠️ Símbolo inválido"},
	}
	for _, c := range cases {
		store := newFakeStore()
		pub := &fakePublisher{}
		d := newTestDispatcher(store, pub)

		r := d.Dispatch(context.Background(), phone, c.in)
		if !strings.Contains(r.Text, c.want) {
			t.Errorf("Dispatch(%q) = %q, want contains %q", c.in, r.Text, c.want)
		}
		if len(store.entries) != 0 {
			t.Errorf("Dispatch(%q) wrote %d entries, want none", c.in, len(store.entries))
		}
		if pub.published != 0 {
			t.Errorf("Dispatch(%q) published %d events, want none", c.in, pub.published)
		}
	}
}

func TestUnresolvedGetsHints(t *testing.T) {
	d := newTestDispatcher(newFakeStore(), &fakePublisher{})
	r := d.Dispatch(context.Background(), phone, "bom dia")
	if !strings.HasPrefix(r.Text, replyUnrecognized) {
		t.Errorf("reply = %q", r.Text)
	}
	if !strings.Contains(r.Text, "Ex: gasto 20 cafe") {
		t.Errorf("reply missing hint: %q", r.Text)
	}
}

func TestPublishOnMutationOnly(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	d := newTestDispatcher(store, pub)
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!salario 4500")
	if pub.published != 1 {
		t.Errorf("published = %d after mutation, want 1", pub.published)
	}
	d.Dispatch(ctx, phone, "!relatorio")
	d.Dispatch(ctx, phone, "!bancofolgas")
	if pub.published != 1 {
		t.Errorf("published = %d after reads, want still 1", pub.published)
	}
}

func TestPublishFailureDoesNotAffectReply(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	d := newTestDispatcher(store, pub)

	r := d.Dispatch(context.Background(), phone, "!salario 4500")
	if !strings.Contains(r.Text, "Salário atual salvo") {
		t.Errorf("reply degraded by publish failure: %q", r.Text)
	}
}

func TestLeaveDefaultsToToday(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})

	r := d.Dispatch(context.Background(), phone, "!folga")
	if r.Text != "🌴 Folga registrada para "+testToday {
		t.Errorf("reply = %q", r.Text)
	}
	if len(store.entries) != 1 || store.entries[0].EventDate != testToday {
		t.Errorf("entries = %+v", store.entries)
	}
}

func TestLeaveBankFlow(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!trabalhei 2025-09-13")
	d.Dispatch(ctx, phone, "!trabalhei 2025-09-14")
	d.Dispatch(ctx, phone, "!folga 2025-09-15")

	r := d.Dispatch(ctx, phone, "!bancofolgas")
	want := "🏦 Banco de folgas -> Crédito: 2d | Débito: 1d | Saldo: 1d"
	if r.Text != want {
		t.Errorf("reply = %q, want %q", r.Text, want)
	}
}

func TestForecastReplies(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	r := d.Dispatch(ctx, phone, "!previsao")
	if !strings.HasPrefix(r.Text, "⚠️ ") {
		t.Errorf("empty-ledger forecast = %q", r.Text)
	}

	d.Dispatch(ctx, phone, "!salario 4500")
	d.Dispatch(ctx, phone, "!gasto 1500 contas")
	r = d.Dispatch(ctx, phone, "!previsao")
	if !strings.Contains(r.Text, "Saldo líquido previsto: R$ 3000.00") {
		t.Errorf("forecast = %q", r.Text)
	}
	if !strings.Contains(r.Text, "média móvel de 1 mês.") {
		t.Errorf("forecast unit = %q", r.Text)
	}
}

func TestStoreErrorReply(t *testing.T) {
	store := newFakeStore()
	store.failEntries = true
	d := newTestDispatcher(store, &fakePublisher{})

	r := d.Dispatch(context.Background(), phone, "!relatorio")
	if r.Text != replyStoreError {
		t.Errorf("reply = %q, want %q", r.Text, replyStoreError)
	}
}

func TestExportCSV(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	r := d.Dispatch(ctx, phone, "!exportcsv")
	if r.Text != "📂 Nada para exportar ainda." {
		t.Errorf("empty export reply = %q", r.Text)
	}

	d.Dispatch(ctx, phone, "!gasto 25 cafe")
	r = d.Dispatch(ctx, phone, "!exportcsv")
	if r.Media == nil || r.Media.Filename != "relatorio.csv" {
		t.Fatalf("media = %+v", r.Media)
	}
	if !strings.Contains(string(r.Media.Data), "cafe") {
		t.Errorf("csv payload missing entry:\n%s", r.Media.Data)
	}
}

type fakeSheets struct {
	exported string
	err      error
}

func (f *fakeSheets) Export(ctx context.Context, spreadsheetID string, entries []models.Entry, totals models.Totals) error {
	f.exported = spreadsheetID
	return f.err
}

func TestExportSheets(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	r := d.Dispatch(ctx, phone, "!exportar_sheets abc123")
	if !strings.Contains(r.Text, "não está configurada") {
		t.Errorf("unconfigured reply = %q", r.Text)
	}

	sheets := &fakeSheets{}
	d.sheets = sheets
	r = d.Dispatch(ctx, phone, "!exportar_sheets abc123")
	if !strings.Contains(r.Text, "✅ Dados exportados") {
		t.Errorf("reply = %q", r.Text)
	}
	if sheets.exported != "abc123" {
		t.Errorf("exported to %q", sheets.exported)
	}
	if store.users[phone].SheetsID != "abc123" {
		t.Errorf("sheets id not persisted: %+v", store.users[phone])
	}

	sheets.err = errors.New("quota exceeded")
	r = d.Dispatch(ctx, phone, "!exportar_sheets abc123")
	if !strings.Contains(r.Text, "⚠️ Erro ao exportar: quota exceeded") {
		t.Errorf("error reply = %q", r.Text)
	}
}

func TestNotificationsPreserveOtherFlag(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!notificar diaria sim")
	d.Dispatch(ctx, phone, "!notificar semanal sim")
	u := store.users[phone]
	if !u.NotifyDaily || !u.NotifyWeekly {
		t.Fatalf("flags = daily %v weekly %v", u.NotifyDaily, u.NotifyWeekly)
	}

	d.Dispatch(ctx, phone, "!notificar diaria nao")
	if u.NotifyDaily || !u.NotifyWeekly {
		t.Errorf("weekly flag lost: daily %v weekly %v", u.NotifyDaily, u.NotifyWeekly)
	}
}

func TestMenuAndHelp(t *testing.T) {
	d := newTestDispatcher(newFakeStore(), &fakePublisher{})
	ctx := context.Background()

	r := d.Dispatch(ctx, phone, "!menu")
	if len(r.Keyboard) == 0 {
		t.Error("menu has no keyboard")
	}
	r = d.Dispatch(ctx, phone, "!ajuda")
	if !strings.Contains(r.Text, "!gasto VALOR") {
		t.Errorf("help text truncated: %q", r.Text)
	}
}

func TestCryptoWatchlist(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!addcripto btc")
	d.Dispatch(ctx, phone, "!addcripto ETH")
	r := d.Dispatch(ctx, phone, "!lista_cripto")
	if r.Text != "🪙 Sua lista de criptos: BTC, ETH" {
		t.Errorf("list = %q", r.Text)
	}
	d.Dispatch(ctx, phone, "!rmcripto btc")
	r = d.Dispatch(ctx, phone, "!lista_cripto")
	if r.Text != "🪙 Sua lista de criptos: ETH" {
		t.Errorf("list after removal = %q", r.Text)
	}
}

func TestMonthlyReport(t *testing.T) {
	store := newFakeStore()
	d := newTestDispatcher(store, &fakePublisher{})
	ctx := context.Background()

	d.Dispatch(ctx, phone, "!salario 4500")
	d.Dispatch(ctx, phone, "!meta 3000")
	d.Dispatch(ctx, phone, "!trabalhei 2025-09-10")
	d.Dispatch(ctx, phone, "!horaextra 2 2025-09-11")

	r := d.Dispatch(ctx, phone, "!salario_mes 2025-09 5000")
	if !strings.Contains(r.Text, "💼 Salário mensal de 2025-09 definido em R$ 5000.00.") {
		t.Fatalf("override reply = %q", r.Text)
	}

	r = d.Dispatch(ctx, phone, "!relatoriomes 2025-09")
	for _, want := range []string{
		"🗓️ Relatório de 2025-09",
		// the fixed monthly salary wins over the logged 4500
		"Salários: R$ 5000.00",
		fmt.Sprintf("Horas Extra: %.2fh", 2.0),
		"Meta: R$ 3000.00 (✅ atingida)",
		"  • 2025-09-10 (+1d)",
		"  • 2025-09-11: 2.00h",
		"  • Sem folgas registradas",
	} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("monthly report missing %q:\n%s", want, r.Text)
		}
	}
}
