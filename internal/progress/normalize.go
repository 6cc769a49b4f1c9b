package progress

import (
	"fmt"
	"math"
	"strings"
)

// RawKind tags the heterogeneous signals reported by the extraction engine.
type RawKind string

// Raw signal kinds.
const (
	// RawDownloading carries cumulative transfer counters.
	RawDownloading RawKind = "downloading"
	// RawFinished marks transfer completion; post-processing may still run.
	RawFinished RawKind = "finished"
	// RawLog carries one extractor log line.
	RawLog RawKind = "log"
)

// RawSignal is one untyped progress callback from the extraction engine.
type RawSignal struct {
	Kind RawKind

	// Downloading fields. TotalBytes of 0 means unknown; TotalBytesEstimate
	// is consulted as a fallback. ETASeconds below 0 means unknown.
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	SpeedBytesPerSec   float64
	ETASeconds         int64
	Filename           string

	// Log fields.
	LogLevel string
	Line     string
}

// Log levels attached to RawLog signals.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
)

// debugLineLimit bounds surfaced debug lines; they are diagnostic echoes and
// can run very long.
const debugLineLimit = 50

// downloadEchoPrefix marks the extractor's own transfer-progress log echoes,
// which duplicate RawDownloading signals and are suppressed.
const downloadEchoPrefix = "[download]"

// ProcessingMessage is the post-transfer status shown while muxing or
// transcoding may still be running.
const ProcessingMessage = "Processing/Merging..."

// Normalize translates one raw signal into a typed event. The second return
// is false when the signal carries nothing the observer should see.
func Normalize(sig RawSignal) (Event, bool) {
	switch sig.Kind {
	case RawDownloading:
		return normalizeDownloading(sig), true
	case RawFinished:
		return Processing(ProcessingMessage), true
	case RawLog:
		return normalizeLog(sig)
	default:
		return Event{}, false
	}
}

func normalizeDownloading(sig RawSignal) Event {
	total := sig.TotalBytes
	if total <= 0 {
		total = sig.TotalBytesEstimate
	}
	var pct float64
	if total > 0 {
		pct = float64(sig.DownloadedBytes) / float64(total) * 100
		pct = math.Min(math.Max(pct, 0), 100)
	}
	pct = math.Round(pct*10) / 10
	filename := sig.Filename
	if filename == "" {
		filename = "Unknown"
	}
	return Event{
		Status:          StatusDownloading,
		Percentage:      pct,
		PercentageLabel: fmt.Sprintf("%.1f%%", pct),
		Speed:           FormatRate(sig.SpeedBytesPerSec),
		ETA:             FormatETA(sig.ETASeconds),
		Downloaded:      FormatBytes(float64(sig.DownloadedBytes)),
		Total:           FormatBytes(float64(total)),
		Filename:        filename,
	}
}

// normalizeLog surfaces qualitative extractor output as Preparing events so
// the observer sees status ("extracting metadata", "merging streams") even
// when no percentage is available. The extractor's own download-progress
// echoes are suppressed; they duplicate RawDownloading signals.
func normalizeLog(sig RawSignal) (Event, bool) {
	line := strings.TrimSpace(sig.Line)
	if line == "" || strings.HasPrefix(line, downloadEchoPrefix) {
		return Event{}, false
	}
	if sig.LogLevel == LogLevelDebug {
		if !strings.HasPrefix(line, "[debug] ") {
			return Event{}, false
		}
		if len(line) > debugLineLimit {
			line = line[:debugLineLimit]
		}
	}
	return Preparing(line), true
}
