// Package download defines the domain types and collaborator interfaces for
// the single-flight media download service.
package download

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors surfaced to the API layer.
var (
	// ErrInvalidRequest signals a missing or malformed submission.
	ErrInvalidRequest = errors.New("invalid download request")
	// ErrBusy signals that a job is already in flight.
	ErrBusy = errors.New("download already in progress")
)

// FormatProfile selects the output format negotiated with yt-dlp.
type FormatProfile string

// Supported format profiles.
const (
	FormatBest      FormatProfile = "best"
	FormatVideo1080 FormatProfile = "video_1080"
	FormatVideo720  FormatProfile = "video_720"
	FormatVideo480  FormatProfile = "video_480"
	FormatVideoOnly FormatProfile = "video_only"
	FormatAudioBest FormatProfile = "audio_best"
	FormatAudioLow  FormatProfile = "audio_low"
)

// Audio profiles post-convert to a fixed container, so the resolved filename
// must be corrected to this extension.
const AudioContainerExt = ".mp3"

// IsAudio reports whether the profile extracts audio only.
func (p FormatProfile) IsAudio() bool {
	return p == FormatAudioBest || p == FormatAudioLow
}

// Valid reports whether the profile is one of the supported values. The empty
// profile is accepted and treated as FormatBest at request build time.
func (p FormatProfile) Valid() bool {
	switch p {
	case FormatBest, FormatVideo1080, FormatVideo720, FormatVideo480,
		FormatVideoOnly, FormatAudioBest, FormatAudioLow:
		return true
	default:
		return false
	}
}

// Request is an immutable job submission.
type Request struct {
	URL     string
	Profile FormatProfile
}

// NewRequest validates the submission and fills profile defaults.
func NewRequest(url string, profile FormatProfile) (Request, error) {
	if strings.TrimSpace(url) == "" {
		return Request{}, fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	if profile == "" {
		profile = FormatBest
	}
	if !profile.Valid() {
		return Request{}, fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, profile)
	}
	return Request{URL: url, Profile: profile}, nil
}

// ClientIdentity is one simulated player configuration used to negotiate
// content access with the upstream platform.
type ClientIdentity struct {
	// Name tags the identity for logs and fallback notices
	// ("android", "ios", "web", "web+token").
	Name string
	// PlayerClient is the yt-dlp player_client extractor argument.
	PlayerClient string
	// POToken is the proof-of-origin token, set only on the "web+token"
	// identity.
	POToken string
	// VisitorData is the visitor-session token, carried by every identity
	// when configured.
	VisitorData string
}

// Credentials is the immutable credential material resolved once at process
// start and treated as read-only configuration by the job controller.
type Credentials struct {
	// CookieFile is the path of a cookie jar handed to yt-dlp, empty when
	// none was resolved.
	CookieFile string
	// POToken promotes the token-bearing web identity to the front of the
	// fallback plan when set.
	POToken string
	// VisitorData is attached to every attempted identity when set.
	VisitorData string
}

// HistoryRecord describes one finished job. Records are created only on a
// Finished terminal event.
type HistoryRecord struct {
	Title     string `json:"title"`
	SourceURL string `json:"url"`
	Format    string `json:"format"`
	Timestamp string `json:"date"`
	Filename  string `json:"filename"`
}

// HistoryTimeLayout is the timestamp layout stored in history records,
// matching the frontend display format.
const HistoryTimeLayout = "2006-01-02 15:04"

// NewHistoryRecord builds the record appended after a successful job.
func NewHistoryRecord(req Request, filename string, at time.Time) HistoryRecord {
	return HistoryRecord{
		Title:     filename,
		SourceURL: req.URL,
		Format:    string(req.Profile),
		Timestamp: at.Format(HistoryTimeLayout),
		Filename:  filename,
	}
}
