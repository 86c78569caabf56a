package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	s := NewFileStore(path)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "display_mode")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "display_mode", "detailed"))
	require.NoError(t, s.Set(ctx, "other", "x"))

	v, ok, err := s.Get(ctx, "display_mode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "detailed", v)

	// A fresh store over the same file sees the persisted values.
	v, ok, err = NewFileStore(path).Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, _, err := NewFileStore(path).Get(context.Background(), "display_mode")
	assert.Error(t, err)
}

func TestFileStore_CancelledContext(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Set(ctx, "k", "v"))
	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
}
