package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/vferraz/agendabot/internal/models"
)

// PostgresStore keeps events in PostgreSQL over a single pgx connection.
type PostgresStore struct {
	conn   *pgx.Conn
	logger *slog.Logger
}

// NewPostgresStore connects to PostgreSQL using connStr and bootstraps the
// schema. The connection must be closed via Close.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	cfg, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse config error: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgx connect error: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("pgx ping error: %w", err)
	}

	s := &PostgresStore{conn: conn, logger: slog.Default().With("component", "store")}
	if _, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS events (
	id          BIGSERIAL PRIMARY KEY,
	owner_id    BIGINT NOT NULL,
	date_text   TEXT NOT NULL,
	description TEXT NOT NULL
)`); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info("postgres store initialized")
	return s, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, ownerID int64, date, description string) (int64, error) {
	var id int64
	err := s.conn.QueryRow(ctx, `
INSERT INTO events (owner_id, date_text, description)
VALUES ($1, $2, $3)
RETURNING id
`, ownerID, date, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting event: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, ownerID int64) ([]models.Event, error) {
	rows, err := s.conn.Query(ctx, `
SELECT id, owner_id, date_text, description
FROM events
WHERE owner_id = $1
ORDER BY date_text
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanPgxEvents(rows)
}

func (s *PostgresStore) ListEventsOn(ctx context.Context, date string) ([]models.Event, error) {
	rows, err := s.conn.Query(ctx, `
SELECT id, owner_id, date_text, description
FROM events
WHERE date_text = $1
ORDER BY owner_id, id
`, date)
	if err != nil {
		return nil, fmt.Errorf("querying events by date: %w", err)
	}
	defer rows.Close()

	return scanPgxEvents(rows)
}

func scanPgxEvents(rows pgx.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Date, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, id, ownerID int64) (int64, error) {
	tag, err := s.conn.Exec(ctx, `
DELETE FROM events
WHERE id = $1 AND owner_id = $2
`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting event: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

var _ EventStore = (*PostgresStore)(nil)
