package objstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads", "cvs")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	content := "CV\n===\n\nFull Name: Ada\n"
	require.NoError(t, s.Put(ctx, "a1.txt", strings.NewReader(content), int64(len(content)), "text/plain"))
	assert.Equal(t, filepath.Join(dir, "a1.txt"), s.Location("a1.txt"))

	rc, err := s.Open(ctx, "a1.txt")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	require.NoError(t, s.Delete(ctx, "a1.txt"))
	_, err = s.Open(ctx, "a1.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a1.txt"), ErrNotFound)
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		t.Run(key, func(t *testing.T) {
			err := s.Put(context.Background(), key, strings.NewReader("x"), 1, "")
			assert.Error(t, err)
		})
	}
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
