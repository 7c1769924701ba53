package images

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutURLDelete(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	s, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)

	ctx := context.Background()
	data := encodePNG(t)
	key := "recipes/2024/3/9/abc.png"

	require.NoError(t, s.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"))

	got, err := os.ReadFile(filepath.Join(s.Root(), "recipes", "2024", "3", "9", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	url, err := s.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/media/recipes/2024/3/9/abc.png", url)

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(s.Root(), "recipes", "2024", "3", "9", "abc.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, key))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://cdn.local/media")
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../x.png", "recipes/../../x.png", "/etc/passwd"} {
		err := s.Put(ctx, key, bytes.NewReader(nil), 0, "image/png")
		assert.Error(t, err, key)

		_, err = s.URL(ctx, key)
		assert.Error(t, err, key)
	}
}

func TestLocalStore_AbsoluteBaseURL(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://cdn.local/media/")
	require.NoError(t, err)

	url, err := s.URL(context.Background(), "recipes/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.local/media/recipes/a.jpg", url)
}
