// Package store persists scheduled events. Two backends implement the same
// interface: SQLite (default, pure Go) and PostgreSQL.
package store

import (
	"context"

	"github.com/vferraz/agendabot/internal/models"
)

// EventStore is durable CRUD over events. Every operation except ListEventsOn
// is scoped to the owning chat: a chat can never see or remove another chat's
// events. Each call is a single statement against the table, so calls are
// independently atomic and nothing spans a list/delete pair.
type EventStore interface {
	// CreateEvent appends a new event and returns its store-assigned id.
	CreateEvent(ctx context.Context, ownerID int64, date, description string) (int64, error)

	// ListEvents returns the owner's events ordered by the stored date text.
	// The order is lexicographic on DD/MM/YYYY (day, then month, then year),
	// which is not chronological across year boundaries.
	ListEvents(ctx context.Context, ownerID int64) ([]models.Event, error)

	// ListEventsOn returns every chat's events dated exactly date. Used by
	// the reminder worker.
	ListEventsOn(ctx context.Context, date string) ([]models.Event, error)

	// DeleteEvent removes the event if it exists and belongs to ownerID, and
	// returns the number of rows removed (0 or 1). A missing or
	// foreign-owned id is not an error.
	DeleteEvent(ctx context.Context, id, ownerID int64) (int64, error)

	Close(ctx context.Context) error
}
