// Package bot is the Telegram boundary: it pulls updates off the long-poll
// channel, keeps one FlowState per chat and hands every message to the
// dialogue engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/vferraz/agendabot/internal/dialog"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	engine *dialog.Engine
	logger *slog.Logger

	// Guards sessions. Updates are handled on a single goroutine, but the
	// reminder worker shares the Bot, so access stays locked.
	mu       sync.Mutex
	sessions map[int64]*dialog.FlowState
}

// New authenticates against Telegram and registers the command menu.
func New(token string, engine *dialog.Engine) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	api.Debug = false

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "Show help"},
		{Command: "schedule", Description: "Add a new event"},
		{Command: "list", Description: "Show your appointments"},
		{Command: "delete", Description: "Remove an event"},
		{Command: "cancel", Description: "Cancel the operation in progress"},
	}
	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return nil, fmt.Errorf("setting bot commands: %w", err)
	}

	return &Bot{
		api:      api,
		engine:   engine,
		logger:   slog.Default().With("component", "bot"),
		sessions: make(map[int64]*dialog.FlowState),
	}, nil
}

// Username returns the authenticated bot account name.
func (b *Bot) Username() string { return b.api.Self.UserName }

// Run consumes the update channel until ctx is cancelled. All updates are
// handled on this one goroutine, so two messages from the same chat are
// never processed concurrently.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	log := b.logger.With("trace_id", uuid.NewString(), "chat_id", chatID)

	st := b.session(chatID)

	var (
		reply dialog.Reply
		err   error
	)
	if msg.IsCommand() {
		log.Debug("handling command", "command", msg.Command())
		reply, err = b.engine.Command(ctx, chatID, msg.Command(), st)
	} else {
		reply, err = b.engine.Message(ctx, chatID, msg.Text, st)
	}
	if err != nil {
		// Storage failure. The engine already produced the conversational
		// reply for it; just record the cause.
		log.Error("dialog step failed", "error", err)
	}
	if reply.Text == "" {
		return
	}

	out := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		out.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.api.Send(out); err != nil {
		log.Error("sending reply", "error", err)
	}
}

// session returns the chat's flow state, creating the idle zero value on
// first contact.
func (b *Bot) session(chatID int64) *dialog.FlowState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.sessions[chatID]
	if !ok {
		st = &dialog.FlowState{}
		b.sessions[chatID] = st
	}
	return st
}

// SendText pushes a plain message outside the request/reply cycle. The
// reminder worker uses it.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
