// Package ytdlp implements the extraction-engine collaborator by driving the
// yt-dlp binary and translating its output into raw progress signals.
package ytdlp

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/progress"
)

// Config controls how the yt-dlp binary is invoked.
type Config struct {
	// Binary is the executable name or path (default "yt-dlp").
	Binary string
	// DownloadDir is where outputs land.
	DownloadDir string
	// CacheDir is passed through to yt-dlp (default "/tmp/yt-dlp-cache").
	CacheDir string
}

// Extractor shells out to yt-dlp per attempt. One Extractor is safe for
// sequential use by the job controller; attempts never overlap.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// New constructs an Extractor.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "/tmp/yt-dlp-cache"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// CheckDependencies verifies the external binaries this extractor needs.
func CheckDependencies(binary string) error {
	if binary == "" {
		binary = "yt-dlp"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", binary)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("missing dependency: ffmpeg is required for merging and audio conversion")
	}
	return nil
}

// Extract runs one yt-dlp attempt for the given client identity, streaming
// raw signals to onProgress until the process exits. The final output paths
// are resolved from this attempt's own printed file paths.
func (e *Extractor) Extract(
	ctx context.Context,
	req download.Request,
	client download.ClientIdentity,
	creds download.Credentials,
	onProgress func(progress.RawSignal),
) (download.ExtractResult, error) {
	args := e.buildArgs(req, client, creds)
	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return download.ExtractResult{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return download.ExtractResult{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return download.ExtractResult{}, fmt.Errorf("start %s: %w", e.cfg.Binary, err)
	}

	var (
		mu      sync.Mutex
		outputs []string
	)
	collect := func(path string) {
		mu.Lock()
		outputs = append(outputs, path)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			e.handleStdoutLine(strings.TrimSpace(scanner.Text()), collect, onProgress)
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			e.handleStderrLine(strings.TrimSpace(scanner.Text()), onProgress)
		}
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return download.ExtractResult{}, fmt.Errorf("%s (%s): %w", e.cfg.Binary, client.Name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	return download.ExtractResult{OutputPaths: outputs}, nil
}

func (e *Extractor) handleStdoutLine(
	line string,
	collect func(string),
	onProgress func(progress.RawSignal),
) {
	switch {
	case line == "":
	case strings.HasPrefix(line, progressLinePrefix):
		if sig, ok := parseProgressLine(line); ok {
			onProgress(sig)
		}
	case strings.HasPrefix(line, outputPathPrefix):
		collect(strings.TrimPrefix(line, outputPathPrefix))
	default:
		onProgress(progress.RawSignal{
			Kind:     progress.RawLog,
			LogLevel: progress.LogLevelInfo,
			Line:     line,
		})
	}
}

func (e *Extractor) handleStderrLine(line string, onProgress func(progress.RawSignal)) {
	if line == "" {
		return
	}
	level := progress.LogLevelInfo
	if strings.HasPrefix(line, "[debug] ") {
		level = progress.LogLevelDebug
	}
	e.logger.Debug("yt-dlp stderr", zap.String("line", line))
	onProgress(progress.RawSignal{Kind: progress.RawLog, LogLevel: level, Line: line})
}

// buildArgs assembles the yt-dlp invocation for one attempt.
func (e *Extractor) buildArgs(
	req download.Request,
	client download.ClientIdentity,
	creds download.Credentials,
) []string {
	args := []string{
		"--newline",
		"--no-warnings",
		"--force-ipv4",
		"--force-overwrites",
		"--no-mtime",
		"--no-quiet",
		"--cache-dir", e.cfg.CacheDir,
		"--output", filepath.Join(e.cfg.DownloadDir, "%(title)s.%(ext)s"),
		"--progress",
		"--progress-template", progressTemplate,
		"--print", outputPathTemplate,
		"--extractor-args", extractorArgs(client),
	}
	if creds.CookieFile != "" {
		args = append(args, "--cookies", creds.CookieFile)
	}
	args = append(args, formatArgs(req.Profile)...)
	args = append(args, req.URL)
	return args
}

// formatArgs maps a format profile onto yt-dlp selectors and postprocessing.
func formatArgs(profile download.FormatProfile) []string {
	switch profile {
	case download.FormatAudioBest:
		return []string{
			"--format", "bestaudio/best",
			"--extract-audio", "--audio-format", "mp3", "--audio-quality", "192K",
		}
	case download.FormatAudioLow:
		return []string{
			"--format", "worstaudio/worst",
			"--extract-audio", "--audio-format", "mp3", "--audio-quality", "128K",
		}
	case download.FormatVideo1080:
		return []string{"--format", "bestvideo[height<=1080]+bestaudio/best[height<=1080]"}
	case download.FormatVideo720:
		return []string{"--format", "bestvideo[height<=720]+bestaudio/best[height<=720]"}
	case download.FormatVideo480:
		return []string{"--format", "bestvideo[height<=480]+bestaudio/best[height<=480]"}
	case download.FormatVideoOnly:
		return []string{"--format", "bestvideo"}
	default:
		return []string{"--format", "bestvideo+bestaudio/best"}
	}
}

// extractorArgs builds the youtube extractor argument string for one identity.
func extractorArgs(client download.ClientIdentity) string {
	parts := []string{"player_client=" + client.PlayerClient}
	if client.POToken != "" {
		parts = append(parts, fmt.Sprintf("po_token=%s+%s", client.PlayerClient, client.POToken))
	}
	if client.VisitorData != "" {
		parts = append(parts, "visitor_data="+client.VisitorData)
	}
	return "youtube:" + strings.Join(parts, ";")
}
