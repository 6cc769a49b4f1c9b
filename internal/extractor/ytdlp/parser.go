package ytdlp

import (
	"strconv"
	"strings"

	"github.com/Siddh2024/yt-dlp-web/internal/progress"
)

// progressLinePrefix marks machine-readable progress lines emitted through
// --progress-template. The prefix keeps them distinguishable from ordinary
// extractor output on the same stream.
const progressLinePrefix = "ytweb-progress|"

// progressTemplate emits pipe-separated transfer counters once per progress
// tick. Unavailable fields render as "NA" and parse to their unknown values.
const progressTemplate = "download:" + progressLinePrefix +
	"%(progress.status)s|" +
	"%(progress.downloaded_bytes)s|" +
	"%(progress.total_bytes)s|" +
	"%(progress.total_bytes_estimate)s|" +
	"%(progress.speed)s|" +
	"%(progress.eta)s|" +
	"%(progress.filename)s"

// outputPathPrefix marks the final file path printed after post-processing
// moves the output into place.
const outputPathPrefix = "ytweb-outpath|"

// outputPathTemplate resolves the canonical path of each finished download
// from the attempt that produced it.
const outputPathTemplate = "after_move:" + outputPathPrefix + "%(filepath)s"

// parseProgressLine decodes one progress-template line into a raw signal.
func parseProgressLine(line string) (progress.RawSignal, bool) {
	fields := strings.Split(strings.TrimPrefix(line, progressLinePrefix), "|")
	if len(fields) != 7 {
		return progress.RawSignal{}, false
	}
	status := fields[0]
	switch status {
	case "downloading":
		return progress.RawSignal{
			Kind:               progress.RawDownloading,
			DownloadedBytes:    parseInt(fields[1], 0),
			TotalBytes:         parseInt(fields[2], 0),
			TotalBytesEstimate: parseInt(fields[3], 0),
			SpeedBytesPerSec:   parseFloat(fields[4]),
			ETASeconds:         parseInt(fields[5], -1),
			Filename:           fields[6],
		}, true
	case "finished":
		return progress.RawSignal{
			Kind:     progress.RawFinished,
			Filename: fields[6],
		}, true
	default:
		return progress.RawSignal{}, false
	}
}

// parseInt reads a template numeric field, tolerating float renderings and
// returning unknown for "NA" or empty values.
func parseInt(s string, unknown int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return unknown
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return unknown
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
