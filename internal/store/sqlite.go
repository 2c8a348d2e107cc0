package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/croneya/pokersync/internal/domain"
)

// SQLite persists one row per room: the full JSON document plus the columns
// the lobby summary needs.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS room (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    user_count INTEGER NOT NULL,
    document   TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// OpenSQLite opens the room database, creating the schema on first run.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Info().Str("module", "store.sqlite").Str("path", path).Msg("room store opened")
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM room WHERE id = ?`, roomID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}
	var room domain.Room
	if err := json.Unmarshal([]byte(doc), &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

func (s *SQLite) Put(ctx context.Context, room *domain.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO room (id, name, user_count, document, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			user_count = excluded.user_count,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		room.ID, room.Name, len(room.Users), string(doc), room.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		return fmt.Errorf("put room %s: %w", room.ID, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, roomID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM room WHERE id = ?`, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

func (s *SQLite) ListSummaries(ctx context.Context) ([]domain.RoomSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, user_count FROM room ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()
	out := make([]domain.RoomSummary, 0)
	for rows.Next() {
		var sum domain.RoomSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.UserCount); err != nil {
			return nil, fmt.Errorf("scan room summary: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
