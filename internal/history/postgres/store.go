// Package postgres provides a Postgres-backed history store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/history"
)

// DB is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists finished-job records in Postgres.
//
// Expected schema:
//
//	CREATE TABLE history (
//	    id BIGSERIAL PRIMARY KEY,
//	    title TEXT NOT NULL,
//	    source_url TEXT NOT NULL,
//	    format TEXT NOT NULL,
//	    created_at TEXT NOT NULL,
//	    filename TEXT NOT NULL
//	);
type Store struct {
	db  DB
	cap int
}

// NewStore connects a pgx pool for the given DSN. cap <= 0 selects the
// default bound.
func NewStore(ctx context.Context, dsn string, cap int) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStoreWithDB(pool, cap), nil
}

// NewStoreWithDB wires an existing connection; used by tests with pgxmock.
func NewStoreWithDB(db DB, cap int) *Store {
	if cap <= 0 {
		cap = history.DefaultCap
	}
	return &Store{db: db, cap: cap}
}

// Append inserts the record and prunes rows beyond the cap, oldest first.
func (s *Store) Append(ctx context.Context, rec download.HistoryRecord) error {
	const insert = `
		INSERT INTO history (title, source_url, format, created_at, filename)
		VALUES ($1, $2, $3, $4, $5);`
	if _, err := s.db.Exec(ctx, insert,
		rec.Title, rec.SourceURL, rec.Format, rec.Timestamp, rec.Filename,
	); err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	const prune = `
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY id DESC LIMIT $1
		);`
	if _, err := s.db.Exec(ctx, prune, s.cap); err != nil {
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
		FROM history ORDER BY id DESC LIMIT $1;`
	rows, err := s.db.Query(ctx, query, limit)
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
