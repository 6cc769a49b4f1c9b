package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
	"github.com/Siddh2024/yt-dlp-web/internal/progress"
)

type downloadRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// submitDownload handles POST /download. It admits at most one job; a second
// submission while busy gets 409 without disturbing the running job's stream.
func (s *Server) submitDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	jobReq, err := download.NewRequest(req.URL, download.FormatProfile(req.Format))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	jobID, err := s.controller.Start(jobReq)
	if err != nil {
		if errors.Is(err, download.ErrBusy) {
			writeError(w, http.StatusConflict, "Download already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "job_id": jobID})
}

// streamProgress handles GET /progress as a server-sent-events stream. One
// event object is written per frame; a keep-alive frame is synthesized every
// heartbeat interval. The stream ends after the first terminal event or when
// the client disconnects; the running job is unaffected either way.
func (s *Server) streamProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.Duration(s.cfg.Server.HeartbeatSeconds) * time.Second
	events := s.controller.Events()
	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}
		evt := events.Receive(heartbeat)
		if err := writeSSE(w, evt); err != nil {
			return
		}
		flusher.Flush()
		if evt.Terminal() {
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, evt progress.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// listHistory handles GET /history?limit=. The response is a JSON array,
// most recent first.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = val
	}
	ctx, cancel := context.WithTimeout(r.Context(), historyRequestTimeout)
	defer cancel()

	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("list history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []download.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// serveDownload handles GET /downloads/{filename}, serving a finished file
// as an attachment. Traversal outside the download directory is rejected.
func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	path := filepath.Join(s.cfg.Downloads.Dir, filename)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}
