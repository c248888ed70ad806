package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"telegram-finance-bot/internal/models"
)

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	if err := runMigrations(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// ---------- users -----------------------------------------------------------

// EnsureUser creates the user row on first contact. Idempotent.
func (d *DB) EnsureUser(phone string) error {
	_, err := d.Exec(`
        INSERT INTO users (phone, created_at) VALUES (?, ?)
        ON CONFLICT(phone) DO NOTHING`, phone, time.Now().Unix())
	return err
}

func (d *DB) GetUser(phone string) (*models.User, error) {
	row := d.QueryRow(`
        SELECT phone, last_salary, target_income, max_expense_percent, max_expense_value,
               notify_daily, notify_weekly, sheets_id, language, timezone, notify_hour,
               insight_enabled, last_daily_sent, last_insight_sent,
               morning_brief_enabled, morning_brief_hour, created_at
        FROM users WHERE phone=?`, phone)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(r rowScanner) (*models.User, error) {
	var u models.User
	err := r.Scan(
		&u.Phone, &u.LastSalary, &u.TargetIncome, &u.MaxExpensePercent, &u.MaxExpenseValue,
		&u.NotifyDaily, &u.NotifyWeekly, &u.SheetsID, &u.Language, &u.Timezone, &u.NotifyHour,
		&u.InsightEnabled, &u.LastDailySent, &u.LastInsightSent,
		&u.MorningBriefOn, &u.MorningBriefHour, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PrefPatch carries a partial preference update; nil fields are untouched.
type PrefPatch struct {
	Language       *string
	Timezone       *string
	NotifyHour     *int
	InsightEnabled *bool
}

func (d *DB) UpdateUserPrefs(phone string, p PrefPatch) error {
	if p.NotifyHour != nil && (*p.NotifyHour < 0 || *p.NotifyHour > 23) {
		return fmt.Errorf("notify hour out of range: %d", *p.NotifyHour)
	}
	set := ""
	args := []any{}
	add := func(col string, v any) {
		if set != "" {
			set += ", "
		}
		set += col + "=?"
		args = append(args, v)
	}
	if p.Language != nil {
		add("language", *p.Language)
	}
	if p.Timezone != nil {
		add("timezone", *p.Timezone)
	}
	if p.NotifyHour != nil {
		add("notify_hour", *p.NotifyHour)
	}
	if p.InsightEnabled != nil {
		add("insight_enabled", *p.InsightEnabled)
	}
	if set == "" {
		return nil
	}
	args = append(args, phone)
	_, err := d.Exec("UPDATE users SET "+set+" WHERE phone=?", args...)
	return err
}

func (d *DB) SetLastSalary(phone string, v float64) error {
	_, err := d.Exec(`UPDATE users SET last_salary=?, last_salary_date=datetime('now') WHERE phone=?`, v, phone)
	return err
}

func (d *DB) SetGoal(phone string, v float64) error {
	_, err := d.Exec(`UPDATE users SET target_income=? WHERE phone=?`, v, phone)
	return err
}

func (d *DB) SetExpensePercent(phone string, v float64) error {
	_, err := d.Exec(`UPDATE users SET max_expense_percent=? WHERE phone=?`, v, phone)
	return err
}

func (d *DB) SetExpenseValue(phone string, v float64) error {
	_, err := d.Exec(`UPDATE users SET max_expense_value=? WHERE phone=?`, v, phone)
	return err
}

func (d *DB) SetNotifications(phone string, daily, weekly bool) error {
	_, err := d.Exec(`UPDATE users SET notify_daily=?, notify_weekly=? WHERE phone=?`, daily, weekly, phone)
	return err
}

func (d *DB) SetSheetsID(phone, sheetsID string) error {
	_, err := d.Exec(`UPDATE users SET sheets_id=? WHERE phone=?`, sheetsID, phone)
	return err
}

// SetMorningBrief updates the briefing flag and/or hour; nil means keep.
func (d *DB) SetMorningBrief(phone string, enabled *bool, hour *int) error {
	if hour != nil && (*hour < 0 || *hour > 23) {
		return fmt.Errorf("briefing hour out of range: %d", *hour)
	}
	if enabled != nil && hour != nil {
		_, err := d.Exec(`UPDATE users SET morning_brief_enabled=?, morning_brief_hour=? WHERE phone=?`, *enabled, *hour, phone)
		return err
	}
	if enabled != nil {
		_, err := d.Exec(`UPDATE users SET morning_brief_enabled=? WHERE phone=?`, *enabled, phone)
		return err
	}
	if hour != nil {
		_, err := d.Exec(`UPDATE users SET morning_brief_hour=? WHERE phone=?`, *hour, phone)
		return err
	}
	return nil
}

// ---------- dedup stamps ----------------------------------------------------

func (d *DB) MarkDailySent(phone, date string) error {
	_, err := d.Exec(`UPDATE users SET last_daily_sent=? WHERE phone=?`, date, phone)
	return err
}

func (d *DB) MarkInsightSent(phone, date string) error {
	_, err := d.Exec(`UPDATE users SET last_insight_sent=? WHERE phone=?`, date, phone)
	return err
}

// ---------- entries ---------------------------------------------------------

// AddEntry appends an immutable ledger entry and returns its id.
func (d *DB) AddEntry(e *models.Entry) (int64, error) {
	amount := sql.NullFloat64{Float64: e.Amount, Valid: e.Type == models.TypeSalary || e.Type == models.TypeExpense}
	hours := sql.NullFloat64{Float64: e.Hours, Valid: e.Type == models.TypeOvertime || e.Type == models.TypeLeave || e.Type == models.TypeWorkday}
	category := sql.NullString{String: e.Category, Valid: e.Category != ""}
	eventDate := sql.NullString{String: e.EventDate, Valid: e.EventDate != ""}

	res, err := d.Exec(`
        INSERT INTO entries (phone, type, amount, hours, description, category, event_date)
        VALUES (?,?,?,?,?,?,?)`,
		e.Phone, string(e.Type), amount, hours, e.Description, category, eventDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetEntries returns the user's full ledger ordered by effective date.
func (d *DB) GetEntries(phone string) ([]models.Entry, error) {
	rows, err := d.Query(`
        SELECT id, phone, type, amount, hours, description, category, event_date, created_at
        FROM entries WHERE phone=?
        ORDER BY COALESCE(event_date, created_at) ASC, id ASC`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Entry
	for rows.Next() {
		var e models.Entry
		var amount, hours sql.NullFloat64
		var category, eventDate sql.NullString
		if err := rows.Scan(&e.ID, &e.Phone, &e.Type, &amount, &hours,
			&e.Description, &category, &eventDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Amount = amount.Float64
		e.Hours = hours.Float64
		e.Category = category.String
		e.EventDate = eventDate.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// LastTwoSalaries returns the newest salary entries, most recent first.
func (d *DB) LastTwoSalaries(phone string) ([]models.Entry, error) {
	rows, err := d.Query(`
        SELECT id, amount, created_at FROM entries
        WHERE phone=? AND type='salary'
        ORDER BY created_at DESC, id DESC LIMIT 2`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Entry
	for rows.Next() {
		e := models.Entry{Phone: phone, Type: models.TypeSalary}
		var amount sql.NullFloat64
		if err := rows.Scan(&e.ID, &amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Amount = amount.Float64
		res = append(res, e)
	}
	return res, rows.Err()
}

// ---------- monthly salary override ----------------------------------------

func (d *DB) SetMonthlySalary(phone, month string, amount float64) error {
	_, err := d.Exec(`
        INSERT INTO salaries_monthly (phone, month, amount) VALUES (?,?,?)
        ON CONFLICT(phone, month) DO UPDATE SET amount=excluded.amount`,
		phone, month, amount)
	return err
}

func (d *DB) GetMonthlySalary(phone, month string) (float64, error) {
	var amount float64
	err := d.QueryRow(`SELECT amount FROM salaries_monthly WHERE phone=? AND month=?`, phone, month).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

// ---------- category limits -------------------------------------------------

func (d *DB) SetCategoryLimit(phone, category string, limit float64) error {
	_, err := d.Exec(`
        INSERT INTO category_limits (phone, category, limit_value) VALUES (?,?,?)
        ON CONFLICT(phone, category) DO UPDATE SET limit_value=excluded.limit_value`,
		phone, category, limit)
	return err
}

// GetCategoryLimit returns nil when no limit is set.
func (d *DB) GetCategoryLimit(phone, category string) (*float64, error) {
	var v float64
	err := d.QueryRow(`SELECT limit_value FROM category_limits WHERE phone=? AND category=?`, phone, category).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DB) ListCategoryLimits(phone string) ([]models.CategoryLimit, error) {
	rows, err := d.Query(`SELECT phone, category, limit_value FROM category_limits WHERE phone=? ORDER BY category`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.CategoryLimit
	for rows.Next() {
		var l models.CategoryLimit
		if err := rows.Scan(&l.Phone, &l.Category, &l.LimitValue); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// ---------- crypto watchlist ------------------------------------------------

func (d *DB) AddCryptoSymbol(phone, symbol string) error {
	_, err := d.Exec(`INSERT OR IGNORE INTO user_crypto_watchlist (phone, symbol) VALUES (?,?)`, phone, symbol)
	return err
}

func (d *DB) RemoveCryptoSymbol(phone, symbol string) error {
	_, err := d.Exec(`DELETE FROM user_crypto_watchlist WHERE phone=? AND symbol=?`, phone, symbol)
	return err
}

func (d *DB) CryptoWatchlist(phone string) ([]string, error) {
	rows, err := d.Query(`SELECT symbol FROM user_crypto_watchlist WHERE phone=? ORDER BY symbol`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// ---------- scheduler fan-out -----------------------------------------------

// ListUserOverviews returns every user with per-type sums precomputed, the
// scheduler's working set for one tick.
func (d *DB) ListUserOverviews() ([]models.UserOverview, error) {
	rows, err := d.Query(`
        SELECT u.phone, u.last_salary, u.target_income, u.max_expense_percent, u.max_expense_value,
               u.notify_daily, u.notify_weekly, u.sheets_id, u.language, u.timezone, u.notify_hour,
               u.insight_enabled, u.last_daily_sent, u.last_insight_sent,
               u.morning_brief_enabled, u.morning_brief_hour, u.created_at,
               COALESCE((SELECT SUM(amount) FROM entries e WHERE e.phone=u.phone AND e.type='salary'), 0),
               COALESCE((SELECT SUM(amount) FROM entries e WHERE e.phone=u.phone AND e.type='expense'), 0),
               COALESCE((SELECT SUM(hours) FROM entries e WHERE e.phone=u.phone AND e.type='overtime'), 0),
               COALESCE((SELECT SUM(hours) FROM entries e WHERE e.phone=u.phone AND e.type='leave'), 0),
               COALESCE((SELECT SUM(hours) FROM entries e WHERE e.phone=u.phone AND e.type='workday'), 0)
        FROM users u`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.UserOverview
	for rows.Next() {
		var o models.UserOverview
		if err := rows.Scan(
			&o.Phone, &o.LastSalary, &o.TargetIncome, &o.MaxExpensePercent, &o.MaxExpenseValue,
			&o.NotifyDaily, &o.NotifyWeekly, &o.SheetsID, &o.Language, &o.Timezone, &o.NotifyHour,
			&o.InsightEnabled, &o.LastDailySent, &o.LastInsightSent,
			&o.MorningBriefOn, &o.MorningBriefHour, &o.CreatedAt,
			&o.Totals.Salary, &o.Totals.Expense, &o.Totals.OvertimeHours,
			&o.Totals.LeaveHours, &o.Totals.WorkdayHours,
		); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
