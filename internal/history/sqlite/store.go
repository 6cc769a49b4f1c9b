// Package sqlite provides the default local history store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/history"
)

// Store persists finished-job records in a SQLite database file.
type Store struct {
	db  *sql.DB
	cap int
}

// NewStore opens (creating if needed) the database at path and runs the
// schema migration. cap <= 0 selects the default bound.
func NewStore(path string, cap int) (*Store, error) {
	if cap <= 0 {
		cap = history.DefaultCap
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	s := &Store{db: db, cap: cap}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		source_url TEXT NOT NULL,
		format TEXT NOT NULL,
		created_at TEXT NOT NULL,
		filename TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}
	return nil
}

// Append inserts the record and prunes rows beyond the cap, oldest first.
func (s *Store) Append(ctx context.Context, rec download.HistoryRecord) error {
	const insert = `
	INSERT INTO history (title, source_url, format, created_at, filename)
	VALUES (?, ?, ?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, insert,
		rec.Title, rec.SourceURL, rec.Format, rec.Timestamp, rec.Filename,
	); err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	const prune = `
	DELETE FROM history WHERE id NOT IN (
		SELECT id FROM history ORDER BY id DESC LIMIT ?
	);`
	if _, err := s.db.ExecContext(ctx, prune, s.cap); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]download.HistoryRecord, error) {
	if limit <= 0 || limit > s.cap {
		limit = s.cap
	}
	const query = `
	SELECT title, source_url, format, created_at, filename
	FROM history ORDER BY id DESC LIMIT ?;`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []download.HistoryRecord
	for rows.Next() {
		var rec download.HistoryRecord
		if err := rows.Scan(&rec.Title, &rec.SourceURL, &rec.Format, &rec.Timestamp, &rec.Filename); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}
