package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/asset-inventory-backend/repository"
)

func TestLocalFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := repository.NewLocalFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "job-1.txt", []byte("[%]|x")))

	data, err := store.Get(ctx, "job-1.txt")
	require.NoError(t, err)
	assert.Equal(t, "[%]|x", string(data))

	require.NoError(t, store.Delete(ctx, "job-1.txt"))
	_, err = store.Get(ctx, "job-1.txt")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "job-1.txt"), "deleting twice is fine")
}

func TestLocalFileStore_KeysStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := repository.NewLocalFileStore(filepath.Join(dir, "imports"))
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "../escape.txt", []byte("x")))

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "imports", "escape.txt"))
	assert.NoError(t, err)
}
