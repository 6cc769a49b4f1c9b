package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	historymemory "github.com/Siddh2024/yt-dlp-web/internal/history/memory"
	"github.com/Siddh2024/yt-dlp-web/internal/progress"
	publishermemory "github.com/Siddh2024/yt-dlp-web/internal/publisher/memory"
)

type fakeExtractor struct {
	mu       sync.Mutex
	attempts []string
	// behave maps a client identity name to its scripted outcome.
	behave func(client download.ClientIdentity, onProgress func(progress.RawSignal)) (download.ExtractResult, error)
}

func (f *fakeExtractor) Extract(
	_ context.Context,
	_ download.Request,
	client download.ClientIdentity,
	_ download.Credentials,
	onProgress func(progress.RawSignal),
) (download.ExtractResult, error) {
	f.mu.Lock()
	f.attempts = append(f.attempts, client.Name)
	f.mu.Unlock()
	return f.behave(client, onProgress)
}

func (f *fakeExtractor) attemptNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.attempts))
	copy(out, f.attempts)
	return out
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type seqIDGen struct{ n atomic.Int64 }

func (g *seqIDGen) NewID() (string, error) {
	return "job-" + string(rune('a'+g.n.Add(1)-1)), nil
}

type failingHistory struct{}

func (failingHistory) Append(context.Context, download.HistoryRecord) error {
	return errors.New("disk full")
}

func (failingHistory) Recent(context.Context, int) ([]download.HistoryRecord, error) {
	return nil, nil
}

func newTestController(t *testing.T, ext download.Extractor, history download.HistoryStore, pub download.Publisher) (*Controller, *progress.Channel) {
	t.Helper()
	ch := progress.NewChannel(128, nil)
	cfg := Config{}
	if pub != nil {
		cfg.PublishTopic = "downloads-done"
	}
	ctrl := New(
		ext,
		history,
		pub,
		nil,
		ch,
		download.Credentials{},
		fixedClock{at: time.Date(2025, time.June, 1, 12, 30, 0, 0, time.UTC)},
		&seqIDGen{},
		cfg,
		nil,
	)
	return ctrl, ch
}

// drain collects events until a terminal event or the deadline.
func drain(t *testing.T, ch *progress.Channel) []progress.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var events []progress.Event
	for {
		select {
		case <-deadline:
			t.Fatalf("no terminal event observed; got %d events", len(events))
		default:
		}
		evt := ch.Receive(100 * time.Millisecond)
		if evt.KeepAlive {
			continue
		}
		events = append(events, evt)
		if evt.Terminal() {
			return events
		}
	}
}

func TestStartSuccessOnFirstAttempt(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		behave: func(_ download.ClientIdentity, onProgress func(progress.RawSignal)) (download.ExtractResult, error) {
			onProgress(progress.RawSignal{
				Kind:            progress.RawDownloading,
				DownloadedBytes: 500,
				TotalBytes:      1000,
				Filename:        "clip.mp4",
			})
			onProgress(progress.RawSignal{Kind: progress.RawFinished})
			return download.ExtractResult{OutputPaths: []string{"/downloads/clip.mp4"}}, nil
		},
	}
	hist := historymemory.NewStore(10)
	pub := publishermemory.New()
	ctrl, ch := newTestController(t, ext, hist, pub)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatBest)
	require.NoError(t, err)

	jobID, err := ctrl.Start(req)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	events := drain(t, ch)
	last := events[len(events)-1]
	require.Equal(t, progress.StatusFinished, last.Status)
	require.Equal(t, "clip.mp4", last.Filename)
	require.Equal(t, 100.0, last.Percentage)

	// Percentage never decreases across the stream.
	prev := -1.0
	for _, evt := range events {
		if evt.Status == progress.StatusDownloading || evt.Status == progress.StatusProcessing || evt.Status == progress.StatusFinished {
			require.GreaterOrEqual(t, evt.Percentage, prev)
			prev = evt.Percentage
		}
	}

	require.Eventually(t, func() bool { return !ctrl.Busy() }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"android"}, ext.attemptNames())

	records, err := hist.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "clip.mp4", records[0].Filename)
	require.Equal(t, "2025-06-01 12:30", records[0].Timestamp)

	require.Eventually(t, func() bool { return len(pub.Messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "downloads-done", pub.Messages()[0].Topic)
}

func TestStartFallsBackAcrossClients(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		behave: func(client download.ClientIdentity, _ func(progress.RawSignal)) (download.ExtractResult, error) {
			if client.Name != "web" {
				return download.ExtractResult{}, errors.New(client.Name + " blocked")
			}
			return download.ExtractResult{OutputPaths: []string{"/downloads/late.mp4"}}, nil
		},
	}
	ctrl, ch := newTestController(t, ext, historymemory.NewStore(10), nil)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatBest)
	require.NoError(t, err)
	_, err = ctrl.Start(req)
	require.NoError(t, err)

	events := drain(t, ch)
	require.Equal(t, progress.StatusFinished, events[len(events)-1].Status)

	var notices []string
	for _, evt := range events {
		if evt.Status == progress.StatusPreparing {
			notices = append(notices, evt.Message)
		}
	}
	require.Contains(t, notices, "android failed, trying ios...")
	require.Contains(t, notices, "ios failed, trying web...")

	require.Equal(t, []string{"android", "ios", "web"}, ext.attemptNames())
}

func TestStartAllClientsFail(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		behave: func(client download.ClientIdentity, _ func(progress.RawSignal)) (download.ExtractResult, error) {
			return download.ExtractResult{}, errors.New(client.Name + " blocked")
		},
	}
	hist := historymemory.NewStore(10)
	ctrl, ch := newTestController(t, ext, hist, nil)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatBest)
	require.NoError(t, err)
	_, err = ctrl.Start(req)
	require.NoError(t, err)

	events := drain(t, ch)
	last := events[len(events)-1]
	require.Equal(t, progress.StatusError, last.Status)
	require.Contains(t, last.Message, "All clients failed")
	require.Contains(t, last.Message, "web blocked")

	require.Eventually(t, func() bool { return !ctrl.Busy() }, 2*time.Second, 10*time.Millisecond)

	// Failed jobs never reach history.
	records, err := hist.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestStartRejectsSecondJob(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ext := &fakeExtractor{
		behave: func(_ download.ClientIdentity, _ func(progress.RawSignal)) (download.ExtractResult, error) {
			<-release
			return download.ExtractResult{OutputPaths: []string{"/downloads/a.mp4"}}, nil
		},
	}
	ctrl, ch := newTestController(t, ext, historymemory.NewStore(10), nil)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatBest)
	require.NoError(t, err)
	_, err = ctrl.Start(req)
	require.NoError(t, err)
	require.True(t, ctrl.Busy())

	_, err = ctrl.Start(req)
	require.ErrorIs(t, err, download.ErrBusy)
	// The rejected submission makes no attempt and pushes no events.
	require.Eventually(t, func() bool { return len(ext.attemptNames()) == 1 }, 2*time.Second, 10*time.Millisecond)

	close(release)
	events := drain(t, ch)
	require.Equal(t, progress.StatusFinished, events[len(events)-1].Status)
	require.Eventually(t, func() bool { return !ctrl.Busy() }, 2*time.Second, 10*time.Millisecond)
}

func TestFinishCorrectsAudioExtension(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		behave: func(_ download.ClientIdentity, _ func(progress.RawSignal)) (download.ExtractResult, error) {
			// yt-dlp reports the pre-conversion container for audio jobs.
			return download.ExtractResult{OutputPaths: []string{"/downloads/song.webm"}}, nil
		},
	}
	hist := historymemory.NewStore(10)
	ctrl, ch := newTestController(t, ext, hist, nil)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatAudioBest)
	require.NoError(t, err)
	_, err = ctrl.Start(req)
	require.NoError(t, err)

	events := drain(t, ch)
	require.Equal(t, "song.mp3", events[len(events)-1].Filename)

	require.Eventually(t, func() bool { return !ctrl.Busy() }, 2*time.Second, 10*time.Millisecond)
	records, err := hist.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "song.mp3", records[0].Filename)
}

func TestFinishWithoutResolvedPathIsError(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		behave: func(_ download.ClientIdentity, _ func(progress.RawSignal)) (download.ExtractResult, error) {
			return download.ExtractResult{}, nil
		},
	}
	ctrl, ch := newTestController(t, ext, historymemory.NewStore(10), nil)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatBest)
	require.NoError(t, err)
	_, err = ctrl.Start(req)
	require.NoError(t, err)

	events := drain(t, ch)
	last := events[len(events)-1]
	require.Equal(t, progress.StatusError, last.Status)
	require.Contains(t, last.Message, "no output file")
}

func TestHistoryFailureDoesNotDowngradeFinished(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		behave: func(_ download.ClientIdentity, _ func(progress.RawSignal)) (download.ExtractResult, error) {
			return download.ExtractResult{OutputPaths: []string{"/downloads/clip.mp4"}}, nil
		},
	}
	ctrl, ch := newTestController(t, ext, failingHistory{}, nil)

	req, err := download.NewRequest("https://example.com/watch?v=abc", download.FormatBest)
	require.NoError(t, err)
	_, err = ctrl.Start(req)
	require.NoError(t, err)

	events := drain(t, ch)
	require.Equal(t, progress.StatusFinished, events[len(events)-1].Status)
	require.Eventually(t, func() bool { return !ctrl.Busy() }, 2*time.Second, 10*time.Millisecond)
}
