package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"telegram-finance-bot/internal/bot"
	"telegram-finance-bot/internal/commands"
	"telegram-finance-bot/internal/config"
	"telegram-finance-bot/internal/events"
	"telegram-finance-bot/internal/logx"
	"telegram-finance-bot/internal/market"
	"telegram-finance-bot/internal/outbox"
	"telegram-finance-bot/internal/scheduler"
	"telegram-finance-bot/internal/sheets"
	"telegram-finance-bot/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logx.New(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The dashboard fan-out is best effort; the bot still runs.
			log.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			publisher = p
			defer p.Close()
		}
	}

	var sheetsExporter commands.SheetsExporter
	if cfg.GoogleCredentialsPath != "" {
		x, err := sheets.New(ctx, cfg.GoogleCredentialsPath)
		if err != nil {
			log.Warn("Google Sheets unavailable, export disabled", "error", err)
		} else {
			sheetsExporter = x
		}
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	log.Info("bot authorized", "username", api.Self.UserName)

	queue := outbox.New(bot.NewSender(api), log.WithComponent("outbox"),
		cfg.SendQueueSize, cfg.SendBackoffBase, cfg.SendBackoffCap)

	dispatcher := commands.NewDispatcher(db, publisher, sheetsExporter, log.WithComponent("dispatcher"))
	handler := bot.New(api, dispatcher, queue, log.WithComponent("bot"))

	sched := scheduler.New(db, queue, market.NewClient(), log.WithComponent("scheduler"))
	gs, err := sched.Start(ctx)
	if err != nil {
		return err
	}
	defer gs.Shutdown()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return handler.Run(ctx) })
	g.Go(func() error { return queue.Run(ctx) })

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}
