package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/teslashibe/go-peekguard/pkg/settings"
)

const schema = `
CREATE TABLE IF NOT EXISTS peeking_events (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	face_count INTEGER NOT NULL DEFAULT 0,
	angle_from_center REAL NOT NULL DEFAULT 0,
	duration_seconds REAL NOT NULL DEFAULT 0,
	mode TEXT NOT NULL,
	action TEXT NOT NULL,
	photo_path TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT 'Unknown'
);

CREATE INDEX IF NOT EXISTS idx_peeking_events_timestamp ON peeking_events(timestamp);
`

const (
	queryInsertEvent = `
		INSERT INTO peeking_events (id, timestamp, face_count, angle_from_center, duration_seconds, mode, action, photo_path, location)
		VALUES (:id, :timestamp, :face_count, :angle_from_center, :duration_seconds, :mode, :action, :photo_path, :location)`
	queryGetEvent   = `SELECT * FROM peeking_events WHERE id = ?`
	queryListEvents = `SELECT * FROM peeking_events ORDER BY timestamp DESC, id DESC LIMIT ?`
	queryCount      = `SELECT COUNT(*) FROM peeking_events`
	queryClear      = `DELETE FROM peeking_events`
)

// DefaultListLimit caps List when limit is not positive.
const DefaultListLimit = 100

// eventDB is the row layout of peeking_events.
type eventDB struct {
	ID              string    `db:"id"`
	Timestamp       time.Time `db:"timestamp"`
	FaceCount       int       `db:"face_count"`
	AngleFromCenter float64   `db:"angle_from_center"`
	DurationSeconds float64   `db:"duration_seconds"`
	Mode            string    `db:"mode"`
	Action          string    `db:"action"`
	PhotoPath       string    `db:"photo_path"`
	Location        string    `db:"location"`
}

func toRow(e Event) eventDB {
	return eventDB{
		ID:              e.ID,
		Timestamp:       e.Timestamp,
		FaceCount:       e.FaceCount,
		AngleFromCenter: e.AngleFromCenter,
		DurationSeconds: e.DurationSeconds,
		Mode:            e.Mode.String(),
		Action:          e.Action.String(),
		PhotoPath:       e.PhotoPath,
		Location:        e.Location,
	}
}

func (r eventDB) event() Event {
	mode, err := settings.ParseMode(r.Mode)
	if err != nil {
		mode = settings.Defaults().Mode
	}
	action, err := settings.ParseAction(r.Action)
	if err != nil {
		action = settings.Defaults().Protection.Action
	}
	return Event{
		ID:              r.ID,
		Timestamp:       r.Timestamp.UTC(),
		FaceCount:       r.FaceCount,
		AngleFromCenter: r.AngleFromCenter,
		DurationSeconds: r.DurationSeconds,
		Mode:            mode,
		Action:          action,
		PhotoPath:       r.PhotoPath,
		Location:        r.Location,
	}
}

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record implements Recorder. ID, Timestamp and Location are filled in when empty.
func (s *SQLiteStore) Record(ctx context.Context, e *Event) error {
	if err := prepare(e); err != nil {
		return fmt.Errorf("history: new id: %w", err)
	}
	if _, err := s.db.NamedExecContext(ctx, queryInsertEvent, toRow(*e)); err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Get implements Store
func (s *SQLiteStore) Get(ctx context.Context, id string) (Event, error) {
	var row eventDB
	err := s.db.GetContext(ctx, &row, queryGetEvent, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("history: get: %w", err)
	}
	return row.event(), nil
}

// List implements Store
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var rows []eventDB
	if err := s.db.SelectContext(ctx, &rows, queryListEvents, limit); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}

	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.event())
	}
	return events, nil
}

// Count implements Store
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, queryCount); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

// Clear implements Store
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, queryClear); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}
