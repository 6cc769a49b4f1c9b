// Package memory provides an in-memory history store for development and
// testing.
package memory

import (
	"context"
	"sync"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/history"
)

// Store keeps finished-job records in memory, most recent first, capped.
type Store struct {
	mu      sync.RWMutex
	records []download.HistoryRecord
	cap     int
}

// NewStore constructs a Store. cap <= 0 selects the default bound.
func NewStore(cap int) *Store {
	if cap <= 0 {
		cap = history.DefaultCap
	}
	return &Store{cap: cap}
}

// Append inserts the record at the front, evicting the oldest beyond the cap.
func (s *Store) Append(_ context.Context, rec download.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]download.HistoryRecord{rec}, s.records...)
	if len(s.records) > s.cap {
		s.records = s.records[:s.cap]
	}
	return nil
}

// Recent returns up to limit records, most recent first.
func (s *Store) Recent(_ context.Context, limit int) ([]download.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]download.HistoryRecord, limit)
	copy(out, s.records[:limit])
	return out, nil
}
