// Package commands executes canonical commands against the ledger store
// and formats replies. Dispatch is single-shot: resolve, validate, at most
// one store mutation, recompute aggregates, reply. There is no multi-turn
// state; re-sending a mutating command appends another entry by design.
package commands

import (
	"context"
	"strings"
	"time"

	"telegram-finance-bot/internal/events"
	"telegram-finance-bot/internal/logx"
	"telegram-finance-bot/internal/models"
	"telegram-finance-bot/internal/nlu"
	"telegram-finance-bot/internal/storage"
)

// Store is the slice of the ledger store the dispatcher needs.
type Store interface {
	EnsureUser(phone string) error
	GetUser(phone string) (*models.User, error)
	UpdateUserPrefs(phone string, p storage.PrefPatch) error
	SetLastSalary(phone string, v float64) error
	SetGoal(phone string, v float64) error
	SetExpensePercent(phone string, v float64) error
	SetExpenseValue(phone string, v float64) error
	SetNotifications(phone string, daily, weekly bool) error
	SetSheetsID(phone, sheetsID string) error
	SetMorningBrief(phone string, enabled *bool, hour *int) error
	AddEntry(e *models.Entry) (int64, error)
	GetEntries(phone string) ([]models.Entry, error)
	LastTwoSalaries(phone string) ([]models.Entry, error)
	SetMonthlySalary(phone, month string, amount float64) error
	GetMonthlySalary(phone, month string) (float64, error)
	SetCategoryLimit(phone, category string, limit float64) error
	GetCategoryLimit(phone, category string) (*float64, error)
	ListCategoryLimits(phone string) ([]models.CategoryLimit, error)
	AddCryptoSymbol(phone, symbol string) error
	RemoveCryptoSymbol(phone, symbol string) error
	CryptoWatchlist(phone string) ([]string, error)
}

// SheetsExporter is the spreadsheet collaborator. Nil disables the command.
type SheetsExporter interface {
	Export(ctx context.Context, spreadsheetID string, entries []models.Entry, totals models.Totals) error
}

// Media is a binary attachment reply.
type Media struct {
	Data     []byte
	MIME     string
	Filename string
	Caption  string
}

// Reply is what the transport sends back: text, an attachment, or text
// with a quick-reply keyboard.
type Reply struct {
	Text     string
	Media    *Media
	Keyboard [][]string
}

type Dispatcher struct {
	store     Store
	publisher events.Publisher
	sheets    SheetsExporter
	log       *logx.Logger
	now       func() time.Time
}

func NewDispatcher(store Store, publisher events.Publisher, sheets SheetsExporter, log *logx.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		sheets:    sheets,
		log:       log,
		now:       time.Now,
	}
}

const (
	replyUnrecognized = "❓ Comando não reconhecido. Use !ajuda"
	replyStoreError   = "⚠️ Erro ao acessar os dados. Tente novamente."
)

// Dispatch handles one inbound message. Text starting with "!" is taken
// as a classic command; anything else goes through the resolver first.
// Every failure becomes a user-visible string, never a panic.
func (d *Dispatcher) Dispatch(ctx context.Context, phone, text string) Reply {
	text = strings.TrimSpace(text)
	canonical := text
	if !strings.HasPrefix(text, "!") {
		resolved, ok := nlu.Resolve(text)
		if !ok {
			return d.unresolved(text)
		}
		canonical = resolved
	}

	parts := strings.Fields(canonical)
	if len(parts) == 0 {
		return d.unresolved(text)
	}
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "!salario":
		return d.handleSalary(ctx, phone, parts)
	case "!gasto":
		return d.handleExpense(ctx, phone, parts)
	case "!horaextra":
		return d.handleOvertime(ctx, phone, parts)
	case "!folga":
		return d.handleLeave(ctx, phone, parts)
	case "!trabalhei":
		return d.handleWorked(ctx, phone, parts)
	case "!relatorio":
		return d.handleReport(phone)
	case "!relatoriomes":
		return d.handleMonthlyReport(phone, parts)
	case "!salario_mes":
		return d.handleMonthlySalary(ctx, phone, parts)
	case "!meta":
		return d.handleGoal(ctx, phone, parts)
	case "!alerta":
		return d.handleAlertConfig(ctx, phone, parts)
	case "!bancofolgas":
		return d.handleLeaveBank(phone)
	case "!exportcsv":
		return d.handleExportCSV(phone)
	case "!exportpdf":
		return d.handleExportPDF(phone)
	case "!notificar":
		return d.handleNotifications(ctx, phone, parts)
	case "!limite_categoria":
		return d.handleCategoryLimit(ctx, phone, parts)
	case "!limites":
		return d.handleCategoryLimits(phone)
	case "!categorias":
		return d.handleCategoryBreakdown(phone)
	case "!previsao":
		return d.handleForecast(phone)
	case "!historico":
		return d.handleHistorical(phone, parts)
	case "!exportar_sheets":
		return d.handleExportSheets(ctx, phone, parts)
	case "!idioma":
		return d.handleLanguage(ctx, phone, parts)
	case "!preferencias":
		return d.handlePrefs(phone)
	case "!hora_notificar":
		return d.handleNotifyHour(ctx, phone, parts)
	case "!insight":
		return d.handleInsightToggle(ctx, phone, parts)
	case "!briefing":
		return d.handleBriefingToggle(ctx, phone, parts)
	case "!briefing_hora":
		return d.handleBriefingHour(ctx, phone, parts)
	case "!addcripto":
		return d.handleAddCrypto(ctx, phone, parts)
	case "!rmcripto":
		return d.handleRemoveCrypto(ctx, phone, parts)
	case "!lista_cripto":
		return d.handleListCrypto(phone)
	case "!menu":
		return handleMenu()
	case "!ajuda":
		return Reply{Text: helpText}
	default:
		return Reply{Text: replyUnrecognized}
	}
}

func (d *Dispatcher) unresolved(text string) Reply {
	hints := nlu.Suggest(text)
	lines := append([]string{replyUnrecognized}, hints...)
	return Reply{Text: strings.Join(lines, "\n")}
}

// publish fires the ledger-changed event after a successful mutation.
// Failures are logged only; the primary reply must not depend on the
// fan-out path.
func (d *Dispatcher) publish(ctx context.Context, phone string) {
	if err := d.publisher.PublishLedgerChanged(ctx, phone); err != nil {
		d.log.Warn("ledger-changed publish failed", "phone", phone, "error", err)
	}
}

func (d *Dispatcher) storeFail(op string, err error) Reply {
	d.log.Error("store operation failed", "op", op, "error", err)
	return Reply{Text: replyStoreError}
}
