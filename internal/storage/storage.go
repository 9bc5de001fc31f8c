// Package storage defines backends for avatar file storage.
// Handlers stream an uploaded file into a backend and receive back the
// public path under which the avatar is served; the services above only
// ever see that path.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage errors.
var (
	// ErrFileTooLarge indicates the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrUnsupportedType indicates the file extension is not an allowed image type.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// allowedExtensions is the avatar image extension allow-list.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Backend defines the interface for avatar storage backends.
// Implementations include the local filesystem and S3-compatible stores.
type Backend interface {
	// Save stores the content under a fresh name derived from filename's
	// extension and returns the public path of the stored file.
	Save(ctx context.Context, filename string, reader io.Reader, size int64) (string, error)

	// Remove deletes a previously stored file by its public path.
	// Removing an unknown path is not an error.
	Remove(ctx context.Context, publicPath string) error
}

// objectName produces a collision-free stored name for an upload,
// keeping only the original extension.
func objectName(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}
	return uuid.NewString() + ext, nil
}
