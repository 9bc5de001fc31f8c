package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, maxSize int64) *FilesystemBackend {
	t.Helper()
	backend, err := NewFilesystemBackend(t.TempDir(), maxSize, zerolog.Nop())
	require.NoError(t, err)
	return backend
}

func TestFilesystemSave(t *testing.T) {
	backend := newTestBackend(t, 1024)
	ctx := context.Background()

	content := "fake png bytes"
	publicPath, err := backend.Save(ctx, "avatar.png", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(publicPath, "/uploads/"), "public path %q", publicPath)
	assert.True(t, strings.HasSuffix(publicPath, ".png"), "public path %q keeps extension", publicPath)

	name := strings.TrimPrefix(publicPath, "/uploads/")
	data, err := os.ReadFile(filepath.Join(backend.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestFilesystemSaveGeneratesUniqueNames(t *testing.T) {
	backend := newTestBackend(t, 1024)
	ctx := context.Background()

	first, err := backend.Save(ctx, "avatar.png", strings.NewReader("a"), 1)
	require.NoError(t, err)
	second, err := backend.Save(ctx, "avatar.png", strings.NewReader("b"), 1)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestFilesystemSaveRejectsUnsupportedType(t *testing.T) {
	backend := newTestBackend(t, 1024)
	ctx := context.Background()

	for _, name := range []string{"payload.exe", "script.sh", "page.html", "noextension"} {
		_, err := backend.Save(ctx, name, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, ErrUnsupportedType, "filename %q", name)
	}
}

func TestFilesystemSaveRejectsOversized(t *testing.T) {
	backend := newTestBackend(t, 10)
	ctx := context.Background()

	// Declared size over the limit is rejected up front.
	_, err := backend.Save(ctx, "big.png", strings.NewReader("0123456789abc"), 13)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// A lying declared size is caught while copying.
	_, err = backend.Save(ctx, "big.png", strings.NewReader("0123456789abc"), 5)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// Nothing is left behind in the uploads directory.
	entries, err := os.ReadDir(backend.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFilesystemRemove(t *testing.T) {
	backend := newTestBackend(t, 1024)
	ctx := context.Background()

	publicPath, err := backend.Save(ctx, "avatar.jpg", strings.NewReader("x"), 1)
	require.NoError(t, err)

	require.NoError(t, backend.Remove(ctx, publicPath))

	entries, err := os.ReadDir(backend.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Removing twice is fine.
	assert.NoError(t, backend.Remove(ctx, publicPath))
}

func TestFilesystemRemoveIgnoresForeignPaths(t *testing.T) {
	backend := newTestBackend(t, 1024)
	ctx := context.Background()

	// The default avatar and anything outside /uploads/ are not ours to delete.
	assert.NoError(t, backend.Remove(ctx, "/static/default-profile.svg"))
	assert.NoError(t, backend.Remove(ctx, "/uploads/../escape.png"))
	assert.NoError(t, backend.Remove(ctx, ""))
}

func TestObjectNameKeepsExtension(t *testing.T) {
	name, err := objectName("photo.JPEG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpeg"), "name %q", name)
	assert.NotContains(t, name, "/")
}
