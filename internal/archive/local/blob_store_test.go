package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewCreatesBaseDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "archive")
	_, err := New(Config{BaseDir: base})
	require.NoError(t, err)

	info, err := os.Stat(base)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestPutObjectWritesFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store, err := New(Config{BaseDir: base})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "2025/clip.mp4", "video/mp4", strings.NewReader("video bytes"))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(base, "2025", "clip.mp4"), uri)

	data, err := os.ReadFile(filepath.Join(base, "2025", "clip.mp4"))
	require.NoError(t, err)
	require.Equal(t, "video bytes", string(data))
}

func TestPutObjectRejectsEscape(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "../evil.mp4", "video/mp4", strings.NewReader("x"))
	require.Error(t, err)

	_, err = store.PutObject(context.Background(), "/abs/evil.mp4", "video/mp4", strings.NewReader("x"))
	require.Error(t, err)

	_, err = store.PutObject(context.Background(), "  ", "video/mp4", strings.NewReader("x"))
	require.Error(t, err)
}
