package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{Path: filepath.Join(t.TempDir(), "images")})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "qr/qr_PRN001_abc.png", []byte("png-bytes"), "image/png"))

	data, err := store.Get(ctx, "qr/qr_PRN001_abc.png")
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)

	_, err = os.Stat(filepath.Join(store.Root(), "qr", "qr_PRN001_abc.png"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "qr/qr_PRN001_abc.png"))
	_, err = store.Get(ctx, "qr/qr_PRN001_abc.png")
	require.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Delete(ctx, "qr/qr_PRN001_abc.png"), "deleting a missing key is a no-op")
}

func TestLocalStoreOverwrites(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.png", []byte("one"), ""))
	require.NoError(t, store.Put(ctx, "a.png", []byte("two"), ""))

	data, err := store.Get(ctx, "a.png")
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.png", "qr/../../escape.png", "."} {
		require.Error(t, store.Put(ctx, key, []byte("x"), ""), key)
	}
}

func TestLocalStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewLocalStore(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Put(ctx, "a.png", []byte("x"), ""), context.Canceled)
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(context.Background(), Config{Local: LocalConfig{Path: t.TempDir()}})
	require.NoError(t, err)
	require.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), Config{Driver: "ftp"})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Driver: "s3"})
	require.Error(t, err, "bucket is required")
}
