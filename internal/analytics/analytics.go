// Package analytics derives every aggregate from a user's full entry
// stream. All functions are pure; at personal-finance scale a full replay
// per call is cheaper than maintaining incremental state.
package analytics

import (
	"errors"
	"sort"
	"time"

	"telegram-finance-bot/internal/models"
)

// ErrInsufficientHistory is returned by ForecastNextMonth when the ledger
// holds no month of data to average over.
var ErrInsufficientHistory = errors.New("sem dados suficientes para previsão")

// Totals sums the stream by type: amounts for salary/expense, hours for
// the rest. Missing types stay zero.
func Totals(entries []models.Entry) models.Totals {
	var t models.Totals
	for _, e := range entries {
		switch e.Type {
		case models.TypeSalary:
			t.Salary += e.Amount
		case models.TypeExpense:
			t.Expense += e.Amount
		case models.TypeOvertime:
			t.OvertimeHours += e.Hours
		case models.TypeLeave:
			t.LeaveHours += e.Hours
		case models.TypeWorkday:
			t.WorkdayHours += e.Hours
		}
	}
	return t
}

// TotalsInRange filters by effective date, inclusive on both ends, day
// granularity. start and end are YYYY-MM-DD.
func TotalsInRange(entries []models.Entry, start, end string) models.Totals {
	var in []models.Entry
	for _, e := range entries {
		d := e.EffectiveDate()
		if d >= start && d <= end {
			in = append(in, e)
		}
	}
	return Totals(in)
}

// MonthlyTotals filters to one calendar month (YYYY-MM). A month with no
// entries yields all-zero totals.
func MonthlyTotals(entries []models.Entry, month string) models.Totals {
	var in []models.Entry
	for _, e := range entries {
		if entryMonth(e) == month {
			in = append(in, e)
		}
	}
	return Totals(in)
}

// LeaveBank accumulates workday credits against leave debits. The balance
// is monotonic bookkeeping, never reconciled against a calendar.
func LeaveBank(entries []models.Entry) models.LeaveBank {
	var b models.LeaveBank
	for _, e := range entries {
		switch e.Type {
		case models.TypeWorkday:
			b.Credit += e.Hours
		case models.TypeLeave:
			b.Debit += e.Hours
		}
	}
	b.Balance = b.Credit - b.Debit
	return b
}

// UncategorizedLabel buckets expenses without a category.
const UncategorizedLabel = "sem categoria"

// CategoryBreakdown groups expenses by category, optionally restricted to
// one month (pass "" for all time). Sorted by total descending, category
// name ascending on ties.
func CategoryBreakdown(entries []models.Entry, month string) []models.CategoryTotal {
	sums := map[string]float64{}
	for _, e := range entries {
		if e.Type != models.TypeExpense {
			continue
		}
		if month != "" && entryMonth(e) != month {
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		sums[cat] += e.Amount
	}
	out := make([]models.CategoryTotal, 0, len(sums))
	for cat, total := range sums {
		out = append(out, models.CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// HistoricalSeries emits one point per month in [startMonth, endMonth]
// that has at least one entry. Months with no entries are omitted, not
// zero-filled: a gap means "no data", not "zero activity".
func HistoricalSeries(entries []models.Entry, startMonth, endMonth string) []models.MonthPoint {
	byMonth := map[string]*models.MonthPoint{}
	for _, e := range entries {
		m := entryMonth(e)
		if m < startMonth || m > endMonth {
			continue
		}
		p, ok := byMonth[m]
		if !ok {
			p = &models.MonthPoint{Month: m}
			byMonth[m] = p
		}
		switch e.Type {
		case models.TypeSalary:
			p.Salary += e.Amount
		case models.TypeExpense:
			p.Expense += e.Amount
		}
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]models.MonthPoint, 0, len(months))
	for _, m := range months {
		p := byMonth[m]
		p.Net = p.Salary - p.Expense
		out = append(out, *p)
	}
	return out
}

// ForecastNextMonth averages salary and expense over the most recent
// min(3, available) months, an unweighted trailing moving average. With a
// single month of history the forecast equals that month's totals.
func ForecastNextMonth(entries []models.Entry) (models.Forecast, error) {
	type monthAgg struct{ salary, expense float64 }
	byMonth := map[string]*monthAgg{}
	for _, e := range entries {
		m := entryMonth(e)
		a, ok := byMonth[m]
		if !ok {
			a = &monthAgg{}
			byMonth[m] = a
		}
		switch e.Type {
		case models.TypeSalary:
			a.salary += e.Amount
		case models.TypeExpense:
			a.expense += e.Amount
		}
	}
	if len(byMonth) == 0 {
		return models.Forecast{}, ErrInsufficientHistory
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	window := months
	if len(window) > 3 {
		window = window[len(window)-3:]
	}
	var f models.Forecast
	for _, m := range window {
		f.Salary += byMonth[m].salary
		f.Expense += byMonth[m].expense
	}
	f.MonthsUsed = len(window)
	f.Salary /= float64(f.MonthsUsed)
	f.Expense /= float64(f.MonthsUsed)
	f.Net = f.Salary - f.Expense
	return f, nil
}

// WeekComparison holds expense and overtime sums for the trailing ISO
// week against the week before it.
type WeekComparison struct {
	CurExpense, PrevExpense   float64
	CurOvertime, PrevOvertime float64
}

// CompareWeeks buckets entries into the ISO week containing now and the
// prior ISO week, by effective date.
func CompareWeeks(entries []models.Entry, now time.Time) WeekComparison {
	curYear, curWeek := now.ISOWeek()
	prevYear, prevWeek := now.AddDate(0, 0, -7).ISOWeek()

	var c WeekComparison
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.EffectiveDate())
		if err != nil {
			continue
		}
		y, w := d.ISOWeek()
		cur := y == curYear && w == curWeek
		prev := y == prevYear && w == prevWeek
		if !cur && !prev {
			continue
		}
		switch e.Type {
		case models.TypeExpense:
			if cur {
				c.CurExpense += e.Amount
			} else {
				c.PrevExpense += e.Amount
			}
		case models.TypeOvertime:
			if cur {
				c.CurOvertime += e.Hours
			} else {
				c.PrevOvertime += e.Hours
			}
		}
	}
	return c
}

// MonthlyHoursByDay accumulates hours of one entry type per day within a
// month, ordered by day. Used by the monthly report detail lines.
func MonthlyHoursByDay(entries []models.Entry, month string, typ models.EntryType) []models.DayHours {
	byDay := map[string]float64{}
	for _, e := range entries {
		if e.Type != typ || entryMonth(e) != month {
			continue
		}
		byDay[e.EffectiveDate()] += e.Hours
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]models.DayHours, 0, len(days))
	for _, d := range days {
		out = append(out, models.DayHours{Day: d, Hours: byDay[d]})
	}
	return out
}

func entryMonth(e models.Entry) string {
	d := e.EffectiveDate()
	if len(d) >= 7 {
		return d[:7]
	}
	return d
}
