package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/services"
	"go.uber.org/zap"
)

type workerFixture struct {
	jobs   *fakeJobStore
	files  *fakeFileStore
	assets *fakeAssetRepo
	queue  services.ImportJobService
	worker *services.ImportWorker
}

func newWorkerFixture(existingTombos ...string) *workerFixture {
	f := &workerFixture{
		jobs:   newFakeJobStore(),
		files:  newFakeFileStore(),
		assets: newFakeAssetRepo(existingTombos...),
	}
	importer := services.NewAssetImportService(services.ImportDeps{
		Assets: f.assets,
		Rooms:  newFakeRoomRepo(),
	}, services.ImportOptions{}, zap.NewNop())

	f.queue = services.NewImportJobService(f.jobs, f.files, zap.NewNop())
	f.worker = services.NewImportWorker(f.jobs, f.files, importer, zap.NewNop())
	return f
}

func TestImportWorker_ProcessJobSuccess(t *testing.T) {
	f := newWorkerFixture("1001")
	ctx := context.Background()

	job, err := f.queue.Enqueue(ctx, "c1", threeRowFile(), false)
	require.NoError(t, err)

	require.NoError(t, f.worker.ProcessJob(ctx, job.ID))

	done, err := f.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobDone, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, 3, done.Result.TotalRecordsProcessed)
	assert.Equal(t, 2, done.Result.TotalRecordsInserted)
	assert.Equal(t, "Importação concluída com erros", done.Result.Message)
	assert.Equal(t, []models.ImportJobStatus{models.ImportJobProcessing, models.ImportJobDone}, f.jobs.saves)
	assert.Empty(t, f.files.files, "staged file is removed")
}

func TestImportWorker_ProcessJobFailure(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()

	job, err := f.queue.Enqueue(ctx, "c1", threeRowFile(), false)
	require.NoError(t, err)
	delete(f.files.files, job.ObjectKey)

	require.Error(t, f.worker.ProcessJob(ctx, job.ID))

	failed, err := f.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobFailed, failed.Status)
	assert.Equal(t, "Arquivo de importação indisponível", failed.Error)
	assert.Nil(t, failed.Result)
}

func TestImportWorker_ProcessUnknownJob(t *testing.T) {
	f := newWorkerFixture()
	assert.Error(t, f.worker.ProcessJob(context.Background(), "nope"))
}

func TestImportWorker_RunDrainsQueueUntilCancelled(t *testing.T) {
	f := newWorkerFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job, err := f.queue.Enqueue(ctx, "c1", threeRowFile(), false)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		f.worker.Run(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		j, err := f.jobs.Get(context.Background(), job.ID)
		return err == nil && j.Status == models.ImportJobDone
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type cancellingImporter struct {
	cancel context.CancelFunc
}

func (i *cancellingImporter) Import(ctx context.Context, _ services.ImportRequest) (*models.ImportSummary, error) {
	i.cancel()
	return nil, ctx.Err()
}

func (i *cancellingImporter) ListHistory(context.Context, string, int) ([]models.ImportHistoryEntry, error) {
	return nil, nil
}

func TestImportWorker_StoresTerminalStateOnShutdown(t *testing.T) {
	f := newWorkerFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job, err := f.queue.Enqueue(ctx, "c1", threeRowFile(), false)
	require.NoError(t, err)

	worker := services.NewImportWorker(f.jobs, f.files, &cancellingImporter{cancel: cancel}, zap.NewNop())
	err = worker.ProcessJob(ctx, job.ID)
	require.ErrorIs(t, err, context.Canceled)

	stored, err := f.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobFailed, stored.Status)
	assert.Equal(t, []models.ImportJobStatus{models.ImportJobProcessing, models.ImportJobFailed}, f.jobs.saves)
	assert.Empty(t, f.files.files, "staged file is removed")
}

func TestImportWorker_RunStopsDuringDequeueBackoff(t *testing.T) {
	f := newWorkerFixture()
	f.jobs.dequeueErr = errors.New("redis: connection refused")
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		f.worker.Run(ctx)
		close(stopped)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(250 * time.Millisecond):
		t.Fatal("worker kept backing off after cancellation")
	}
}
