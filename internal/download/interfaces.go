package download

import (
	"context"
	"time"

	"github.com/Siddh2024/yt-dlp-web/internal/progress"
)

// ExtractResult is the outcome of one successful extraction attempt. The
// filename is always resolved from the attempt's own result, never from state
// shared across attempts.
type ExtractResult struct {
	// OutputPaths holds the resolved on-disk paths. Merged multi-stream
	// downloads report one path per requested download; the first entry is
	// the canonical output.
	OutputPaths []string
}

// CanonicalPath returns the first resolved output path, or "" when the result
// carries none.
func (r ExtractResult) CanonicalPath() string {
	if len(r.OutputPaths) == 0 {
		return ""
	}
	return r.OutputPaths[0]
}

// Extractor resolves a URL and format profile into a downloaded file using
// one client identity. Raw progress signals are reported through onProgress
// from the extraction goroutine; implementations block until the attempt
// reaches success or failure.
type Extractor interface {
	Extract(
		ctx context.Context,
		req Request,
		client ClientIdentity,
		creds Credentials,
		onProgress func(progress.RawSignal),
	) (ExtractResult, error)
}

// HistoryStore retains a bounded, most-recent-first record of finished jobs.
type HistoryStore interface {
	// Append inserts the record at the front, evicting the oldest entries
	// beyond the store's cap.
	Append(ctx context.Context, rec HistoryRecord) error
	// Recent returns up to limit records, most recent first.
	Recent(ctx context.Context, limit int) ([]HistoryRecord, error)
}

// Publisher emits completion notifications to an external topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Archiver copies a finished output file to longer-term blob storage.
type Archiver interface {
	Archive(ctx context.Context, localPath string) (string, error)
}

// Clock abstracts time.Now for deterministic history timestamps in tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints job identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
