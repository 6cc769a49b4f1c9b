// Package api exposes the HTTP interface for the download service: job
// submission, the server-sent-events progress stream, history browsing, and
// finished-file serving.
package api
