package models

// EntryType classifies a ledger entry.
type EntryType string

const (
	TypeSalary   EntryType = "salary"
	TypeExpense  EntryType = "expense"
	TypeOvertime EntryType = "overtime"
	TypeLeave    EntryType = "leave"
	TypeWorkday  EntryType = "workday"
)

// User holds per-user preferences and alert thresholds.
// Phone is the opaque chat key (for Telegram, the decimal chat ID).
type User struct {
	Phone              string  `db:"phone"`
	LastSalary         float64 `db:"last_salary"`
	TargetIncome       float64 `db:"target_income"`
	MaxExpensePercent  float64 `db:"max_expense_percent"`
	MaxExpenseValue    float64 `db:"max_expense_value"`
	NotifyDaily        bool    `db:"notify_daily"`
	NotifyWeekly       bool    `db:"notify_weekly"`
	SheetsID           string  `db:"sheets_id"`
	Language           string  `db:"language"` // "pt" | "en"
	Timezone           string  `db:"timezone"`
	NotifyHour         int     `db:"notify_hour"`
	InsightEnabled     bool    `db:"insight_enabled"`
	LastDailySent      string  `db:"last_daily_sent"`   // YYYY-MM-DD dedup stamp
	LastInsightSent    string  `db:"last_insight_sent"` // YYYY-MM-DD dedup stamp
	MorningBriefOn     bool    `db:"morning_brief_enabled"`
	MorningBriefHour   int     `db:"morning_brief_hour"`
	CreatedAt          int64   `db:"created_at"`
}

// Entry is an immutable financial fact. Salary/expense carry Amount;
// overtime/leave/workday carry Hours. EventDate, when set, wins over
// CreatedAt for reporting order.
type Entry struct {
	ID          int64     `db:"id"`
	Phone       string    `db:"phone"`
	Type        EntryType `db:"type"`
	Amount      float64   `db:"amount"`
	Hours       float64   `db:"hours"`
	Description string    `db:"description"`
	Category    string    `db:"category"`   // expense only, "" = uncategorized
	EventDate   string    `db:"event_date"` // YYYY-MM-DD, "" = use CreatedAt
	CreatedAt   string    `db:"created_at"` // YYYY-MM-DD HH:MM:SS
}

// EffectiveDate returns the date the entry is reported under.
func (e Entry) EffectiveDate() string {
	if e.EventDate != "" {
		return e.EventDate
	}
	if len(e.CreatedAt) >= 10 {
		return e.CreatedAt[:10]
	}
	return e.CreatedAt
}

// CategoryLimit caps monthly spend for one (phone, category) pair.
type CategoryLimit struct {
	Phone      string  `db:"phone"`
	Category   string  `db:"category"`
	LimitValue float64 `db:"limit_value"`
}

// Totals aggregates a user's entry stream by type.
type Totals struct {
	Salary        float64
	Expense       float64
	OvertimeHours float64
	LeaveHours    float64
	WorkdayHours  float64
}

// LeaveBank is the accrual of workday credits minus leave debits.
type LeaveBank struct {
	Credit  float64
	Debit   float64
	Balance float64
}

// CategoryTotal is one bucket of the expense breakdown.
type CategoryTotal struct {
	Category string
	Total    float64
}

// MonthPoint is one month of the historical series. Months with no
// entries are omitted from the series, not zero-filled.
type MonthPoint struct {
	Month   string // YYYY-MM
	Salary  float64
	Expense float64
	Net     float64
}

// Forecast is a trailing moving-average projection for the next month.
type Forecast struct {
	Salary     float64
	Expense    float64
	Net        float64
	MonthsUsed int
}

// DayHours is per-day accumulated hours within a month.
type DayHours struct {
	Day   string // YYYY-MM-DD
	Hours float64
}

// UserOverview is the scheduler's per-user row: preferences plus
// precomputed per-type sums from the store.
type UserOverview struct {
	User
	Totals Totals
}
