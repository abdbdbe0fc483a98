package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/repository"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestImportJobStore_Lifecycle(t *testing.T) {
	mr, rdb := newRedis(t)
	store := repository.NewImportJobStore(rdb)
	ctx := context.Background()

	job := &models.ImportJob{
		ID:        "job-1",
		Status:    models.ImportJobPending,
		CampusID:  "c1",
		ObjectKey: "job-1.txt",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, job))
	assert.True(t, mr.Exists("asset_import:job:job-1"))
	assert.Greater(t, mr.TTL("asset_import:job:job-1"), time.Duration(0))

	assert.Error(t, store.Create(ctx, job), "job ids are unique")

	job.Status = models.ImportJobDone
	job.Result = &models.ImportResponse{Message: "Importação concluída", TotalRecordsProcessed: 3}
	require.NoError(t, store.Save(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobDone, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 3, got.Result.TotalRecordsProcessed)
}

func TestImportJobStore_GetUnknown(t *testing.T) {
	_, rdb := newRedis(t)
	store := repository.NewImportJobStore(rdb)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestImportJobStore_Queue(t *testing.T) {
	_, rdb := newRedis(t)
	store := repository.NewImportJobStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, "a"))
	require.NoError(t, store.Enqueue(ctx, "b"))

	first, err := store.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	second, err := store.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{first, second})

	_, err = store.Dequeue(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, repository.ErrQueueEmpty)
}
