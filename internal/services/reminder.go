// Package services holds background workers that run next to the bot loop.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vferraz/agendabot/internal/dateparse"
	"github.com/vferraz/agendabot/internal/models"
	"github.com/vferraz/agendabot/internal/store"
)

// Sender delivers a message to a chat outside the normal reply cycle.
type Sender interface {
	SendText(chatID int64, text string) error
}

// Reminder sends each chat a digest of its events on the day the date
// arrives. Dedupe is in memory only: after a restart the current day's
// digest may go out a second time.
type Reminder struct {
	store  store.EventStore
	sender Sender
	logger *slog.Logger
	now    func() time.Time

	lastSent string // day already announced, DD/MM/YYYY
}

func NewReminder(st store.EventStore, sender Sender) *Reminder {
	return &Reminder{
		store:  st,
		sender: sender,
		logger: slog.Default().With("component", "reminder"),
		now:    time.Now,
	}
}

// Run checks once a minute whether the calendar day changed and announces
// the new day's events. Blocks until ctx is cancelled.
func (r *Reminder) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reminder) tick(ctx context.Context) {
	today := r.now().Format(dateparse.Layout)
	if today == r.lastSent {
		return
	}

	events, err := r.store.ListEventsOn(ctx, today)
	if err != nil {
		r.logger.Error("loading today's events", "error", err)
		return
	}

	r.lastSent = today
	if len(events) == 0 {
		return
	}

	for chatID, evs := range groupByOwner(events) {
		if err := r.sender.SendText(chatID, digest(today, evs)); err != nil {
			r.logger.Error("sending reminder", "chat_id", chatID, "error", err)
		}
	}
	r.logger.Info("sent reminders", "date", today, "events", len(events))
}

func groupByOwner(events []models.Event) map[int64][]models.Event {
	byOwner := make(map[int64][]models.Event)
	for _, ev := range events {
		byOwner[ev.OwnerID] = append(byOwner[ev.OwnerID], ev)
	}
	return byOwner
}

func digest(date string, events []models.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 Reminder! You have %d event(s) today (%s):\n", len(events), date)
	for _, ev := range events {
		fmt.Fprintf(&sb, "• %s\n", ev.Description)
	}
	return sb.String()
}
