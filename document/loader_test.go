package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTextSinglePage(t *testing.T) {
	loader := NewFileLoader()
	path := writeTempFile(t, "notes.txt", "All visitors must wear badges.\nBadges are issued at reception.")

	pages, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "badges")
}

func TestLoadTextFormFeedPages(t *testing.T) {
	loader := NewFileLoader()
	path := writeTempFile(t, "policy.txt", "Page one text.\fPage two text.")

	pages, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Page one text.", pages[0].Text)
	assert.Equal(t, "Page two text.", pages[1].Text)
	assert.Equal(t, 2, pages[1].Number)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	loader := NewFileLoader()
	path := writeTempFile(t, "image.png", "not a document")

	_, err := loader.Load(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrLoad)
}

func TestLoadEmptyFile(t *testing.T) {
	loader := NewFileLoader()
	path := writeTempFile(t, "empty.txt", "   \n  ")

	_, err := loader.Load(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrLoad)
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewFileLoader()

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, core.ErrLoad)
}

func TestLoadCorruptPDF(t *testing.T) {
	loader := NewFileLoader()
	path := writeTempFile(t, "broken.pdf", "this is not a pdf")

	_, err := loader.Load(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrLoad)
}
