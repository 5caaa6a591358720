package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/vferraz/agendabot/internal/bot"
	"github.com/vferraz/agendabot/internal/config"
	"github.com/vferraz/agendabot/internal/dialog"
	"github.com/vferraz/agendabot/internal/services"
	"github.com/vferraz/agendabot/internal/store"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Error("opening event store", "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	engine := dialog.NewEngine(st, logger)

	b, err := bot.New(cfg.Telegram.Token, engine)
	if err != nil {
		logger.Error("creating bot", "error", err)
		os.Exit(1)
	}
	color.Green("agendabot running as @%s", b.Username())

	if cfg.Reminders.Enabled {
		go services.NewReminder(st, b).Run(ctx)
	}

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

// configPath resolves the config file location, AGENDABOT_CONFIG first.
func configPath() string {
	if p := os.Getenv("AGENDABOT_CONFIG"); p != "" {
		return p
	}
	return "agendabot.yaml"
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.EventStore, error) {
	switch cfg.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.URL)
	default:
		return store.NewSQLiteStore(cfg.Path)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
