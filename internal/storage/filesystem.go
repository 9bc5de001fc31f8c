package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// publicPrefix is the URL prefix under which filesystem avatars are served.
const publicPrefix = "/uploads/"

// FilesystemBackend stores avatars on the local filesystem.
// Files are served by the HTTP layer under /uploads/.
type FilesystemBackend struct {
	dir     string
	maxSize int64
	logger  zerolog.Logger
}

// NewFilesystemBackend creates a filesystem backend rooted at dir,
// creating the directory if needed.
func NewFilesystemBackend(dir string, maxSize int64, logger zerolog.Logger) (*FilesystemBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &FilesystemBackend{
		dir:     dir,
		maxSize: maxSize,
		logger:  logger.With().Str("component", "storage_fs").Logger(),
	}, nil
}

// Save stores the content and returns its public path.
func (b *FilesystemBackend) Save(ctx context.Context, filename string, reader io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.maxSize > 0 && size > b.maxSize {
		return "", ErrFileTooLarge
	}

	name, err := objectName(filename)
	if err != nil {
		return "", err
	}

	// Write to a temp file first so a failed upload never leaves a
	// half-written avatar behind.
	tmp, err := os.CreateTemp(b.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	limit := io.Reader(reader)
	if b.maxSize > 0 {
		limit = io.LimitReader(reader, b.maxSize+1)
	}

	written, err := io.Copy(tmp, limit)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload: %w", err)
	}
	if b.maxSize > 0 && written > b.maxSize {
		return "", ErrFileTooLarge
	}

	dest := filepath.Join(b.dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move upload into place: %w", err)
	}

	b.logger.Debug().Str("file", name).Int64("size", written).Msg("avatar stored")
	return publicPrefix + name, nil
}

// Remove deletes a previously stored file by its public path.
func (b *FilesystemBackend) Remove(ctx context.Context, publicPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, ok := strings.CutPrefix(publicPath, publicPrefix)
	if !ok || name == "" || strings.Contains(name, "/") {
		// Not one of ours (e.g. the default avatar); nothing to do.
		return nil
	}

	if err := os.Remove(filepath.Join(b.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove avatar: %w", err)
	}
	return nil
}

// Dir returns the directory avatars are stored in.
func (b *FilesystemBackend) Dir() string {
	return b.dir
}

// Ensure FilesystemBackend implements Backend.
var _ Backend = (*FilesystemBackend)(nil)
