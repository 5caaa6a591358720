package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vferraz/agendabot/internal/models"
)

// SQLiteStore keeps events in a local SQLite file. It is the default backend
// and the one the test suite runs against.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path and bootstraps the
// schema. Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id    INTEGER NOT NULL,
			date_text   TEXT NOT NULL,
			description TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_owner ON events(owner_id, date_text);
		CREATE INDEX IF NOT EXISTS idx_events_date ON events(date_text);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, ownerID int64, date, description string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (owner_id, date_text, description)
		VALUES (?, ?, ?)
	`, ownerID, date, description)
	if err != nil {
		return 0, fmt.Errorf("inserting event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new event id: %w", err)
	}

	s.logger.Debug("created event", "id", id, "owner_id", ownerID, "date", date)
	return id, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, ownerID int64) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, date_text, description
		FROM events
		WHERE owner_id = ?
		ORDER BY date_text
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *SQLiteStore) ListEventsOn(ctx context.Context, date string) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, date_text, description
		FROM events
		WHERE date_text = ?
		ORDER BY owner_id, id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("querying events by date: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
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

func (s *SQLiteStore) DeleteEvent(ctx context.Context, id, ownerID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM events
		WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	s.logger.Debug("deleted event", "id", id, "owner_id", ownerID, "removed", affected)
	return affected, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

var _ EventStore = (*SQLiteStore)(nil)
