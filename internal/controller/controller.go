// Package controller implements the single-flight job controller that drives
// the client-identity fallback plan and feeds the progress event channel.
package controller

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/metrics"
	"github.com/Siddh2024/yt-dlp-web/internal/progress"
)

// Config carries the optional collaborator knobs.
type Config struct {
	// PublishTopic enables completion notifications when non-empty.
	PublishTopic string
}

// Controller owns the single-flight invariant: at most one download job runs
// at a time, on its own goroutine, with all observer communication flowing
// through the progress channel.
type Controller struct {
	extractor download.Extractor
	history   download.HistoryStore
	publisher download.Publisher
	archiver  download.Archiver
	channel   *progress.Channel
	creds     download.Credentials
	clock     download.Clock
	idGen     download.IDGenerator
	cfg       Config
	logger    *zap.Logger

	// lease is the single job slot: nil while idle, the running job's ID
	// otherwise. Acquisition is a compare-and-swap so concurrent Start calls
	// admit exactly one job.
	lease atomic.Pointer[string]
}

// New constructs a Controller. publisher and archiver may be nil.
func New(
	extractor download.Extractor,
	history download.HistoryStore,
	publisher download.Publisher,
	archiver download.Archiver,
	channel *progress.Channel,
	creds download.Credentials,
	clock download.Clock,
	idGen download.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		extractor: extractor,
		history:   history,
		publisher: publisher,
		archiver:  archiver,
		channel:   channel,
		creds:     creds,
		clock:     clock,
		idGen:     idGen,
		cfg:       cfg,
		logger:    logger,
	}
}

// Events returns the delivery channel observers drain.
func (c *Controller) Events() *progress.Channel {
	return c.channel
}

// Busy reports whether a job is currently in flight.
func (c *Controller) Busy() bool {
	return c.lease.Load() != nil
}

// Start admits one job. It returns download.ErrBusy without side effects when
// a job is already running; otherwise it resets the event channel, launches
// the job goroutine, and returns the new job ID.
func (c *Controller) Start(req download.Request) (string, error) {
	jobID, err := c.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	if !c.lease.CompareAndSwap(nil, &jobID) {
		return "", download.ErrBusy
	}
	c.channel.Reset()
	metrics.SetJobActive(true)
	go c.run(req, jobID)
	return jobID, nil
}

// run executes the job to a terminal event. The lease release is the last
// action and happens regardless of outcome, including internal panics.
func (c *Controller) run(req download.Request, jobID string) {
	terminal := false
	emit := func(evt progress.Event) {
		if evt.Terminal() {
			terminal = true
		}
		c.channel.Push(evt)
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("download job panicked",
				zap.String("job_id", jobID),
				zap.Any("panic", r),
			)
			if !terminal {
				c.channel.Push(progress.Errorf("internal error"))
				metrics.ObserveJob("error")
			}
		}
		metrics.SetJobActive(false)
		c.lease.Store(nil)
	}()

	ctx := context.Background()
	plan := download.PlanAttempts(c.creds)
	var lastErr error
	for i, identity := range plan {
		emit(progress.Preparing(fmt.Sprintf("Starting extraction (%s)...", identity.Name)))

		result, err := c.extract(ctx, req, identity)
		if err != nil {
			lastErr = err
			metrics.ObserveAttempt(identity.Name, "error")
			c.logger.Warn("extraction attempt failed",
				zap.String("job_id", jobID),
				zap.String("client", identity.Name),
				zap.Error(err),
			)
			if i+1 < len(plan) {
				emit(progress.Preparing(fmt.Sprintf("%s failed, trying %s...", identity.Name, plan[i+1].Name)))
			}
			continue
		}

		metrics.ObserveAttempt(identity.Name, "success")
		c.finish(ctx, req, jobID, result, emit)
		return
	}

	metrics.ObserveJob("error")
	emit(progress.Errorf(fmt.Sprintf("All clients failed: %v", lastErr)))
}

// extract runs one attempt with the raw progress callback wired through the
// normalizer into the channel.
func (c *Controller) extract(
	ctx context.Context,
	req download.Request,
	identity download.ClientIdentity,
) (download.ExtractResult, error) {
	var lastDownloaded int64
	onProgress := func(sig progress.RawSignal) {
		if sig.Kind == progress.RawDownloading {
			metrics.AddBytesDownloaded(sig.DownloadedBytes - lastDownloaded)
			lastDownloaded = sig.DownloadedBytes
		}
		if evt, ok := progress.Normalize(sig); ok {
			c.channel.Push(evt)
		}
	}
	return c.extractor.Extract(ctx, req, identity, c.creds, onProgress)
}

// finish resolves the final filename from the successful attempt's own result,
// emits the terminal event, and runs the non-fatal bookkeeping (history,
// archive, notification). A history or archive failure is logged but never
// downgrades an already-emitted Finished event.
func (c *Controller) finish(
	ctx context.Context,
	req download.Request,
	jobID string,
	result download.ExtractResult,
	emit func(progress.Event),
) {
	path := result.CanonicalPath()
	if path == "" {
		metrics.ObserveJob("error")
		emit(progress.Errorf("extraction succeeded but no output file was resolved"))
		return
	}
	if req.Profile.IsAudio() {
		// Audio profiles post-convert to the fixed audio container; the
		// extractor's reported path may still carry the source extension.
		ext := filepath.Ext(path)
		if !strings.EqualFold(ext, download.AudioContainerExt) {
			path = strings.TrimSuffix(path, ext) + download.AudioContainerExt
		}
	}
	filename := filepath.Base(path)

	metrics.ObserveJob("finished")
	emit(progress.Finished(filename))

	rec := download.NewHistoryRecord(req, filename, c.clock.Now())
	if err := c.history.Append(ctx, rec); err != nil {
		c.logger.Error("history append failed",
			zap.String("job_id", jobID),
			zap.String("filename", filename),
			zap.Error(err),
		)
	}
	if c.archiver != nil {
		if uri, err := c.archiver.Archive(ctx, path); err != nil {
			c.logger.Warn("archive failed", zap.String("job_id", jobID), zap.Error(err))
		} else {
			c.logger.Info("output archived", zap.String("job_id", jobID), zap.String("uri", uri))
		}
	}
	c.publishFinished(ctx, req, jobID, filename)
}

func (c *Controller) publishFinished(ctx context.Context, req download.Request, jobID, filename string) {
	if c.publisher == nil || c.cfg.PublishTopic == "" {
		return
	}
	payload := map[string]any{
		"job_id":    jobID,
		"url":       req.URL,
		"format":    string(req.Profile),
		"filename":  filename,
		"timestamp": c.clock.Now().Format(download.HistoryTimeLayout),
	}
	if _, err := c.publisher.Publish(ctx, c.cfg.PublishTopic, payload); err != nil {
		c.logger.Warn("completion publish failed", zap.String("job_id", jobID), zap.Error(err))
	}
}
