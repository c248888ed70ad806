// Package scheduler pushes digests on a wall-clock cadence: an hourly
// tick walks every user, matches the current hour in the user's timezone
// against their preferences and delivers at most one digest of each kind
// per window. Dedup stamps live in the store, not in memory, so restarts
// cannot double-send.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"telegram-finance-bot/internal/analytics"
	"telegram-finance-bot/internal/logx"
	"telegram-finance-bot/internal/market"
	"telegram-finance-bot/internal/models"
)

// Fixed slot for the weekly summary and the weekly insight, evaluated in
// each user's own timezone.
const (
	weeklyWeekday = time.Monday
	weeklyHour    = 9
)

// Store is the slice of the ledger store the scheduler needs.
type Store interface {
	ListUserOverviews() ([]models.UserOverview, error)
	GetEntries(phone string) ([]models.Entry, error)
	MarkDailySent(phone, date string) error
	MarkInsightSent(phone, date string) error
	CryptoWatchlist(phone string) ([]string, error)
}

// Outbound is the delivery side; the outbox queue satisfies it.
type Outbound interface {
	Enqueue(ctx context.Context, recipient, text string) error
}

// MarketData feeds the morning briefing.
type MarketData interface {
	CryptoPrices(ctx context.Context, symbols []string) []market.Quote
	Headlines(ctx context.Context, limit int) []market.Headline
}

type Scheduler struct {
	store  Store
	out    Outbound
	market MarketData
	log    *logx.Logger
}

func New(store Store, out Outbound, md MarketData, log *logx.Logger) *Scheduler {
	return &Scheduler{store: store, out: out, market: md, log: log}
}

// Start registers the hourly tick and starts the gocron scheduler.
func (s *Scheduler) Start(ctx context.Context) (gocron.Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = gs.NewJob(
		gocron.CronJob("0 * * * *", false),
		gocron.NewTask(func() {
			s.RunTick(ctx, time.Now())
		}),
	)
	if err != nil {
		return nil, err
	}
	gs.Start()
	return gs, nil
}

// RunTick evaluates every user once for the given instant. Per-user
// failures are logged and skipped so one bad record never halts the batch.
func (s *Scheduler) RunTick(ctx context.Context, now time.Time) {
	users, err := s.store.ListUserOverviews()
	if err != nil {
		s.log.Error("list users failed", "error", err)
		return
	}
	for _, u := range users {
		if err := s.evalUser(ctx, u, now); err != nil {
			s.log.Warn("digest delivery failed", "phone", u.Phone, "error", err)
		}
	}
}

func (s *Scheduler) evalUser(ctx context.Context, u models.UserOverview, now time.Time) error {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return fmt.Errorf("bad timezone %q: %w", u.Timezone, err)
	}
	local := now.In(loc)
	today := local.Format("2006-01-02")
	hour := local.Hour()

	dailyStamp := u.LastDailySent

	// Daily balance digest at the user's preferred hour.
	if u.NotifyDaily && hour == u.NotifyHour && dailyStamp != today {
		if err := s.out.Enqueue(ctx, u.Phone, s.dailyDigest(u)); err != nil {
			return err
		}
		if err := s.store.MarkDailySent(u.Phone, today); err != nil {
			return fmt.Errorf("mark daily sent: %w", err)
		}
		dailyStamp = today
	}

	// The morning briefing shares the daily dedup stamp with the balance
	// digest, so enabling both for the same hour delivers only whichever
	// is evaluated first. Intentional carry-over of existing behavior.
	if u.MorningBriefOn && hour == u.MorningBriefHour && dailyStamp != today {
		text, err := s.morningBriefing(ctx, u)
		if err != nil {
			return err
		}
		if err := s.out.Enqueue(ctx, u.Phone, text); err != nil {
			return err
		}
		if err := s.store.MarkDailySent(u.Phone, today); err != nil {
			return fmt.Errorf("mark daily sent: %w", err)
		}
	}

	weeklySlot := local.Weekday() == weeklyWeekday && hour == weeklyHour

	// The hourly tick hits the Monday-9h slot exactly once per week, so
	// the weekly summary needs no stamp of its own.
	if u.NotifyWeekly && weeklySlot {
		if err := s.out.Enqueue(ctx, u.Phone, s.weeklyDigest(u)); err != nil {
			return err
		}
	}

	if u.InsightEnabled && weeklySlot && u.LastInsightSent != today {
		text, err := s.weeklyInsight(u, local)
		if err != nil {
			return err
		}
		if err := s.out.Enqueue(ctx, u.Phone, text); err != nil {
			return err
		}
		if err := s.store.MarkInsightSent(u.Phone, today); err != nil {
			return fmt.Errorf("mark insight sent: %w", err)
		}
	}
	return nil
}

// tr picks the string for the user's language.
func tr(lang, pt, en string) string {
	if lang == "en" {
		return en
	}
	return pt
}

func netBalance(t models.Totals) float64 {
	rate := 0.0
	if t.Salary > 0 {
		rate = t.Salary / 220
	}
	return t.Salary + t.OvertimeHours*rate - t.Expense
}

func (s *Scheduler) dailyDigest(u models.UserOverview) string {
	net := netBalance(u.Totals)
	bank := u.Totals.WorkdayHours - u.Totals.LeaveHours
	return strings.Join([]string{
		tr(u.Language, "🌅 Bom dia! Resumo diário:", "🌅 Good morning! Daily summary:"),
		fmt.Sprintf(tr(u.Language, "💰 Saldo: R$ %.2f", "💰 Balance: R$ %.2f"), net),
		fmt.Sprintf(tr(u.Language, "💸 Gastos: R$ %.2f", "💸 Expenses: R$ %.2f"), u.Totals.Expense),
		fmt.Sprintf(tr(u.Language, "🏦 Banco folgas: %gd", "🏦 Leave bank: %gd"), bank),
		tr(u.Language, "Ótimo dia! 💪", "Have a great day! 💪"),
	}, "\n")
}

func (s *Scheduler) weeklyDigest(u models.UserOverview) string {
	net := netBalance(u.Totals)
	bank := u.Totals.WorkdayHours - u.Totals.LeaveHours

	goalText := tr(u.Language, "Sem meta", "No goal set")
	if u.TargetIncome > 0 {
		status := "✅"
		if net < u.TargetIncome {
			status = fmt.Sprintf(tr(u.Language, "⏳ faltam R$ %.2f", "⏳ R$ %.2f to go"), u.TargetIncome-net)
		}
		goalText = fmt.Sprintf(tr(u.Language, "Meta: R$ %.2f (%s)", "Goal: R$ %.2f (%s)"), u.TargetIncome, status)
	}
	return strings.Join([]string{
		tr(u.Language, "📊 Resumo Semanal:", "📊 Weekly summary:"),
		fmt.Sprintf(tr(u.Language, "Salários: R$ %.2f", "Salaries: R$ %.2f"), u.Totals.Salary),
		fmt.Sprintf(tr(u.Language, "Gastos: R$ %.2f", "Expenses: R$ %.2f"), u.Totals.Expense),
		fmt.Sprintf(tr(u.Language, "Saldo: R$ %.2f", "Balance: R$ %.2f"), net),
		goalText,
		fmt.Sprintf(tr(u.Language, "Banco folgas: %gd", "Leave bank: %gd"), bank),
		tr(u.Language, "Continue firme! 🚀", "Keep it up! 🚀"),
	}, "\n")
}

// Thresholds for the weekly insight, percent change week over week.
const (
	expenseRisePct  = 15
	expenseFallPct  = -10
	overtimeRisePct = 20
)

func (s *Scheduler) weeklyInsight(u models.UserOverview, local time.Time) (string, error) {
	entries, err := s.store.GetEntries(u.Phone)
	if err != nil {
		return "", fmt.Errorf("read entries: %w", err)
	}
	c := analytics.CompareWeeks(entries, local)

	var tips []string
	if c.PrevExpense > 0 {
		change := (c.CurExpense - c.PrevExpense) / c.PrevExpense * 100
		if change > expenseRisePct {
			tips = append(tips, fmt.Sprintf(
				tr(u.Language,
					"⚠️ Gastos subiram %.0f%% em relação à semana anterior. Reveja as categorias.",
					"⚠️ Expenses rose %.0f%% versus last week. Review your categories."), change))
		} else if change < expenseFallPct {
			tips = append(tips, fmt.Sprintf(
				tr(u.Language,
					"👏 Gastos caíram %.0f%% em relação à semana anterior. Continue assim!",
					"👏 Expenses fell %.0f%% versus last week. Keep it going!"), -change))
		}
	}
	if c.PrevOvertime > 0 {
		change := (c.CurOvertime - c.PrevOvertime) / c.PrevOvertime * 100
		if change > overtimeRisePct {
			tips = append(tips, fmt.Sprintf(
				tr(u.Language,
					"⏱️ Horas extras subiram %.0f%%. Cuidado com o ritmo.",
					"⏱️ Overtime rose %.0f%%. Watch your pace."), change))
		}
	}
	if len(tips) == 0 {
		tips = append(tips, tr(u.Language,
			"📊 Semana estável. Continue registrando seus movimentos!",
			"📊 A steady week. Keep logging your activity!"))
	}

	lines := append([]string{tr(u.Language, "🧠 Insight semanal:", "🧠 Weekly insight:")}, tips...)
	return strings.Join(lines, "\n"), nil
}

func (s *Scheduler) morningBriefing(ctx context.Context, u models.UserOverview) (string, error) {
	lines := []string{tr(u.Language, "📈 Briefing de mercado:", "📈 Market briefing:")}

	watchlist, err := s.store.CryptoWatchlist(u.Phone)
	if err != nil {
		return "", fmt.Errorf("read watchlist: %w", err)
	}
	for _, q := range s.market.CryptoPrices(ctx, watchlist) {
		if q.Err != nil {
			lines = append(lines, fmt.Sprintf("  • %s: indisponível", q.ID))
			continue
		}
		lines = append(lines, fmt.Sprintf("  • %s: US$ %.2f / R$ %.2f (%+.1f%% 24h)", q.ID, q.USD, q.BRL, q.Change24))
	}

	for _, h := range s.market.Headlines(ctx, 3) {
		lines = append(lines, "  📰 "+h.Title)
	}
	for _, tip := range market.InvestmentSuggestions(u.Totals) {
		lines = append(lines, "  💡 "+tip)
	}
	return strings.Join(lines, "\n"), nil
}
