package persistent

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

func TestLocalBlobStoreRoundtrip(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02}

	err = store.Put(ctx, "abc.png", bytes.NewReader(payload), "image/png", int64(len(payload)))
	require.NoError(t, err)

	body, err := store.Get(ctx, "abc.png")
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestLocalBlobStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "storage")

	_, err := NewLocalBlobStore(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLocalBlobStoreGetMissing(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "missing.png")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestLocalBlobStoreDelete(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	err = store.Put(ctx, "victim.jpg", bytes.NewReader([]byte("data")), "image/jpeg", 4)
	require.NoError(t, err)

	existed, err := store.Delete(ctx, "victim.jpg")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = store.Delete(ctx, "victim.jpg")
	require.NoError(t, err)
	require.False(t, existed)

	_, err = store.Get(ctx, "victim.jpg")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestLocalBlobStoreOverwrite(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k.png", bytes.NewReader([]byte("old")), "image/png", 3))
	require.NoError(t, store.Put(ctx, "k.png", bytes.NewReader([]byte("newer")), "image/png", 5))

	body, err := store.Get(ctx, "k.png")
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, []byte("newer"), got)
}

func TestLocalBlobStoreURL(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.URL(context.Background(), "abc.png")
	require.NoError(t, err)
	require.Equal(t, "/api/images/file/abc.png", url)
}
