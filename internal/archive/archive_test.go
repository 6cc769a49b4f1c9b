package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Siddh2024/yt-dlp-web/internal/archive/memory"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestArchiveUploadsUnderPrefix(t *testing.T) {
	t.Parallel()

	store := memory.New()
	archiver := New(store, "downloads/2025")
	path := writeTempFile(t, "clip.mp4", "video bytes")

	uri, err := archiver.Archive(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "mem://downloads/2025/clip.mp4", uri)

	data, ok := store.Object("downloads/2025/clip.mp4")
	require.True(t, ok)
	require.Equal(t, "video bytes", string(data))
}

func TestArchiveWithoutPrefix(t *testing.T) {
	t.Parallel()

	store := memory.New()
	archiver := New(store, "")
	path := writeTempFile(t, "song.mp3", "audio bytes")

	uri, err := archiver.Archive(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "mem://song.mp3", uri)
}

func TestArchiveTrimsPrefixSlashes(t *testing.T) {
	t.Parallel()

	store := memory.New()
	archiver := New(store, "/vault/")
	path := writeTempFile(t, "clip.mp4", "x")

	uri, err := archiver.Archive(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "mem://vault/clip.mp4", uri)
}

func TestArchiveMissingFile(t *testing.T) {
	t.Parallel()

	archiver := New(memory.New(), "")
	_, err := archiver.Archive(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
}
