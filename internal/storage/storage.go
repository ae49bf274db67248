package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

// FileStore keeps uploaded paper artifacts under opaque keys.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
}

// NewKey returns a fresh storage key for an uploaded file, keeping the
// original extension: file-<uuid>.pdf
func NewKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if strings.ContainsAny(ext, `/\ `) || len(ext) > 16 {
		ext = ""
	}
	return "file-" + uuid.NewString() + ext
}

func validKey(key string) bool {
	return key != "" && key == filepath.Base(key) && key != "." && key != ".." && !strings.Contains(key, `\`)
}
