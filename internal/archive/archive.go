// Package archive copies finished download outputs to longer-term blob
// storage. Archiving is best-effort bookkeeping after a job has already
// reported success; failures are the caller's to log, never to fail the job.
package archive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore writes one object and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Archiver uploads finished files under a configured prefix.
type Archiver struct {
	store  BlobStore
	prefix string
}

// New constructs an Archiver.
func New(store BlobStore, prefix string) *Archiver {
	return &Archiver{store: store, prefix: strings.Trim(prefix, "/")}
}

// Archive uploads the file at localPath and returns the stored URI.
func (a *Archiver) Archive(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(localPath)
	objectPath := name
	if a.prefix != "" {
		objectPath = a.prefix + "/" + name
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	uri, err := a.store.PutObject(ctx, objectPath, contentType, f)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return uri, nil
}
