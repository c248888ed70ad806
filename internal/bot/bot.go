// Package bot binds the dispatcher to Telegram. The chat ID, rendered as
// a decimal string, is the opaque user key everywhere else in the system.
package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-finance-bot/internal/commands"
	"telegram-finance-bot/internal/logx"
	"telegram-finance-bot/internal/outbox"
)

// Outbound is where replies go; the outbox queue satisfies it.
type Outbound interface {
	EnqueueMessage(ctx context.Context, recipient string, msg outbox.Message) error
}

type Handler struct {
	api        *tgbotapi.BotAPI
	dispatcher *commands.Dispatcher
	out        Outbound
	log        *logx.Logger
}

func New(api *tgbotapi.BotAPI, dispatcher *commands.Dispatcher, out Outbound, log *logx.Logger) *Handler {
	return &Handler{api: api, dispatcher: dispatcher, out: out, log: log}
}

// Run consumes the update channel until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := h.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message == nil || upd.Message.Text == "" {
				continue
			}
			h.handleMessage(ctx, upd.Message)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	phone := strconv.FormatInt(msg.Chat.ID, 10)
	reply := h.dispatcher.Dispatch(ctx, phone, msg.Text)
	if err := h.out.EnqueueMessage(ctx, phone, toMessage(reply)); err != nil {
		h.log.Warn("reply enqueue failed", "phone", phone, "error", err)
	}
}

func toMessage(r commands.Reply) outbox.Message {
	m := outbox.Message{Text: r.Text, Keyboard: r.Keyboard}
	if r.Media != nil {
		m.Media = &outbox.Media{
			Data:     r.Media.Data,
			MIME:     r.Media.MIME,
			Filename: r.Media.Filename,
			Caption:  r.Media.Caption,
		}
	}
	return m
}

// Sender renders outbox messages through the bot API: recipient is the
// decimal chat ID used as the user key.
type Sender struct {
	api *tgbotapi.BotAPI
}

func NewSender(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

func (s *Sender) Send(recipient string, msg outbox.Message) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return err
	}

	if msg.Media != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  msg.Media.Filename,
			Bytes: msg.Media.Data,
		})
		doc.Caption = msg.Media.Caption
		_, err = s.api.Send(doc)
		return err
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	if len(msg.Keyboard) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, len(msg.Keyboard))
		for i, row := range msg.Keyboard {
			btns := make([]tgbotapi.KeyboardButton, len(row))
			for j, label := range row {
				btns[j] = tgbotapi.NewKeyboardButton(label)
			}
			rows[i] = btns
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		out.ReplyMarkup = kb
	}
	_, err = s.api.Send(out)
	return err
}
