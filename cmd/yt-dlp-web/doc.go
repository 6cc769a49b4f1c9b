// Package main hosts the yt-dlp web service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes download submission, a Server-Sent Events progress stream, recent
//     download history, completed-file retrieval, and health/metrics endpoints. Requests are validated and
//     normalized into download.Request before reaching the controller.
//   - Controller: internal/controller.Controller enforces the single-active-job rule with an atomic lease, runs
//     each job on its own goroutine, and walks the client-identity fallback chain (web+token, android, ios, web)
//     until one yt-dlp attempt succeeds or all fail.
//   - Extraction: internal/extractor/ytdlp shells out to the yt-dlp binary with a structured progress template,
//     parses its stdout into raw signals, and reports the final output path printed after post-processing.
//   - Progress fanout: internal/progress normalizes raw signals into wire events and buffers them on a bounded
//     channel that the SSE handler drains, synthesizing keep-alive heartbeats while the stream idles.
//   - Persistence & fanout: completed downloads are recorded in the configured history store (memory/sqlite/
//     postgres, capped at the most recent entries), optionally archived to a blob store (local/GCS), and
//     optionally announced on a Pub/Sub topic. All three are best effort and never fail a finished job.
//   - Configuration & plumbing: Viper populates config from env/files (with an optional .env via godotenv); zap
//     provides structured logging; Prometheus metrics are exported via middleware and the /metrics handler.
//
// Operational notes:
//   - Concurrency model: one download job at a time; concurrent submissions are rejected with 409. Shutdown is
//     coordinated via context cancellation from main; an in-flight yt-dlp process is killed when its context ends.
//   - Dependencies: the yt-dlp and ffmpeg binaries must be on PATH (or configured explicitly); the process exits
//     at startup when either is missing.
//   - Observability: zap logs carry job IDs and attempt client names at key transitions; Prometheus counters track
//     jobs, per-client attempts, and downloaded bytes. Tracing is not wired in.
//
// Quick checklist:
//   - Configure env vars: YTDLPWEB_SERVER_PORT or PORT, YTDLPWEB_DOWNLOADS_DIR, YTDLPWEB_HISTORY_BACKEND,
//     COOKIES_CONTENT / PO_TOKEN / VISITOR_DATA for authenticated extraction, and archive/pubsub settings when
//     fanout beyond local storage is required.
//   - Run locally: go run ./cmd/yt-dlp-web -config config.yaml (or rely solely on env overrides).
package main
