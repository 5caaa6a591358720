// Package dialog holds the per-chat dialogue state machines: the two-step
// create flow, the one-step delete flow and the stateless commands around
// them. All user input errors are answered by re-prompting in place; only
// cancellation or completion ends a flow.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vferraz/agendabot/internal/dateparse"
	"github.com/vferraz/agendabot/internal/models"
	"github.com/vferraz/agendabot/internal/store"
)

// Reply is the single outbound message produced by one engine step. An empty
// Text means nothing should be sent.
type Reply struct {
	Text     string
	Markdown bool
}

// Engine drives the dialogue flows for every chat. It holds no flow state of
// its own; callers pass each chat's FlowState into every step, which keeps
// the engine testable without a live messaging session.
type Engine struct {
	store  store.EventStore
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(st store.EventStore, logger *slog.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: logger.With("component", "dialog"),
		now:    time.Now,
	}
}

// Command handles one named command for a chat. Entering schedule or delete
// unconditionally discards any flow already in progress; start, help and
// list leave an active flow untouched.
//
// A returned non-nil error always means a storage failure. The Reply is
// still valid in that case (a generic conversational failure message) and
// the chat's flow state is left exactly as it was.
func (e *Engine) Command(ctx context.Context, ownerID int64, cmd string, st *FlowState) (Reply, error) {
	switch cmd {
	case "start":
		return Reply{Text: msgGreeting}, nil
	case "help":
		return Reply{Text: msgHelp, Markdown: true}, nil
	case "list":
		return e.listEvents(ctx, ownerID)
	case "schedule":
		return e.enterCreate(st), nil
	case "delete":
		return e.enterDelete(ctx, ownerID, st)
	case "cancel":
		return e.cancel(st), nil
	default:
		return Reply{Text: msgUnknownCommand}, nil
	}
}

// Message handles free text for a chat, feeding it to whatever flow step is
// waiting for input. Text arriving outside any flow is ignored.
func (e *Engine) Message(ctx context.Context, ownerID int64, text string, st *FlowState) (Reply, error) {
	text = strings.TrimSpace(text)

	switch {
	case st.Kind == FlowCreate && st.Step == StepDate:
		return e.createReadDate(text, st), nil
	case st.Kind == FlowCreate && st.Step == StepDescription:
		return e.createReadDescription(ctx, ownerID, text, st)
	case st.Kind == FlowDelete && st.Step == StepChoice:
		return e.deleteReadChoice(ctx, ownerID, text, st)
	default:
		if st.Active() {
			// Kind/Step combination we don't know; drop the stale flow.
			e.logger.Warn("resetting inconsistent flow state",
				"chat_id", ownerID, "kind", st.Kind, "step", st.Step)
			st.reset()
		}
		return Reply{}, nil
	}
}

func (e *Engine) enterCreate(st *FlowState) Reply {
	st.reset()
	st.Kind = FlowCreate
	st.Step = StepDate
	return Reply{Text: msgAskDate}
}

func (e *Engine) createReadDate(text string, st *FlowState) Reply {
	date, err := dateparse.Parse(text, e.now().Year())
	if err != nil {
		// Stay on this step; the user retries, without limit.
		return Reply{Text: msgBadDate, Markdown: true}
	}
	st.Date = date
	st.Step = StepDescription
	return Reply{Text: msgAskDescription}
}

func (e *Engine) createReadDescription(ctx context.Context, ownerID int64, text string, st *FlowState) (Reply, error) {
	if _, err := e.store.CreateEvent(ctx, ownerID, st.Date, text); err != nil {
		return Reply{Text: msgStoreFailure}, fmt.Errorf("creating event: %w", err)
	}

	reply := Reply{
		Text: fmt.Sprintf("✅ *Event scheduled!*\n\n📅 Date: %s\n📝 Description: %s\n\nUse /list to see all your events",
			st.Date, text),
		Markdown: true,
	}
	st.reset()
	return reply, nil
}

func (e *Engine) enterDelete(ctx context.Context, ownerID int64, st *FlowState) (Reply, error) {
	events, err := e.store.ListEvents(ctx, ownerID)
	if err != nil {
		return Reply{Text: msgStoreFailure}, fmt.Errorf("listing events: %w", err)
	}

	st.reset()
	if len(events) == 0 {
		return Reply{Text: msgNothingToDelete}, nil
	}

	st.Kind = FlowDelete
	st.Step = StepChoice
	st.Candidates = events

	var sb strings.Builder
	sb.WriteString("🗑️ *Select the event to remove:*\n\n")
	writeNumbered(&sb, events)
	sb.WriteString("🔢 *Send the number of the event you want to remove:*")
	return Reply{Text: sb.String(), Markdown: true}, nil
}

func (e *Engine) deleteReadChoice(ctx context.Context, ownerID int64, text string, st *FlowState) (Reply, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return Reply{Text: msgChoiceNotANumber, Markdown: true}, nil
	}
	if n < 1 || n > len(st.Candidates) {
		return Reply{
			Text: fmt.Sprintf("⚠️ *Invalid number!* Choose between 1 and %d\nPlease try again:",
				len(st.Candidates)),
			Markdown: true,
		}, nil
	}

	// Resolve against the snapshot taken at flow entry, not a fresh read, so
	// the number the user saw keeps meaning what it meant.
	ev := st.Candidates[n-1]
	removed, err := e.store.DeleteEvent(ctx, ev.ID, ownerID)
	if err != nil {
		return Reply{Text: msgStoreFailure}, fmt.Errorf("deleting event: %w", err)
	}

	st.reset()
	if removed == 0 {
		// The row vanished between the snapshot and now. A normal outcome.
		return Reply{Text: msgAlreadyRemoved}, nil
	}
	return Reply{
		Text:     fmt.Sprintf("✅ *Event removed!*\n\n📅 Date: %s\n📝 Description: %s", ev.Date, ev.Description),
		Markdown: true,
	}, nil
}

func (e *Engine) cancel(st *FlowState) Reply {
	if !st.Active() {
		return Reply{Text: msgNothingToCancel}
	}
	st.reset()
	return Reply{Text: msgCancelled}
}

func (e *Engine) listEvents(ctx context.Context, ownerID int64) (Reply, error) {
	events, err := e.store.ListEvents(ctx, ownerID)
	if err != nil {
		return Reply{Text: msgStoreFailure}, fmt.Errorf("listing events: %w", err)
	}
	if len(events) == 0 {
		return Reply{Text: msgNoEvents}, nil
	}

	var sb strings.Builder
	sb.WriteString("📋 *Your scheduled events:*\n\n")
	writeNumbered(&sb, events)
	return Reply{Text: sb.String(), Markdown: true}, nil
}

func writeNumbered(sb *strings.Builder, events []models.Event) {
	for i, ev := range events {
		fmt.Fprintf(sb, "%d. 📅 *%s*\n   ➡️ %s\n\n", i+1, ev.Date, ev.Description)
	}
}
