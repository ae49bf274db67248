package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/papershelf/papershelf/backend/go-services/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	re := regexp.MustCompile(`^file-[0-9a-f-]{36}\.pdf$`)
	k := NewKey("My Paper.PDF")
	require.Regexp(t, re, k)
	require.NotEqual(t, k, NewKey("My Paper.PDF"))

	require.Regexp(t, `^file-[0-9a-f-]{36}$`, NewKey("README"))
	require.True(t, validKey(NewKey("a.tar.gz")))
}

func TestDiskStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	require.Equal(t, "disk", s.Name())
	require.NoError(t, s.Ping(context.Background()))

	ctx := context.Background()
	body := []byte("%PDF-1.7 fake")
	require.NoError(t, s.Put(ctx, "file-1.pdf", bytes.NewReader(body), int64(len(body)), "application/pdf"))

	rc, err := s.Open(ctx, "file-1.pdf")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, body, got)

	require.NoError(t, s.Delete(ctx, "file-1.pdf"))
	_, err = s.Open(ctx, "file-1.pdf")
	require.ErrorIs(t, err, ErrNotFound)
	// deleting twice is not an error
	require.NoError(t, s.Delete(ctx, "file-1.pdf"))

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	require.Empty(t, entries, "no temp files left behind")
}

func TestDiskStorageRejectsPathKeys(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	for _, key := range []string{"", "../escape.pdf", "a/b.pdf", "..", `a\b`} {
		require.Error(t, s.Put(ctx, key, strings.NewReader("x"), 1, ""), key)
		_, err := s.Open(ctx, key)
		require.Error(t, err, key)
	}
}

func TestDiskStoragePutHonoursContext(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Put(ctx, "file-2.pdf", strings.NewReader("data"), 4, ""), context.Canceled)
	_, err = s.Open(context.Background(), "file-2.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewMinIOStorageRequiresConfig(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{})
	require.Error(t, err)
	_, err = NewMinIOStorage(context.Background(), config.MinIOConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)
}
