package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
	"github.com/yashrajoria/asset-inventory-backend/repository"
	"go.uber.org/zap"
)

// ImportWorker consumes queued import jobs one at a time.
type ImportWorker struct {
	jobs        repository.ImportJobStore
	files       repository.ImportFileStore
	importer    AssetImportService
	logger      *zap.Logger
	pollTimeout time.Duration
	now         func() time.Time
}

func NewImportWorker(jobs repository.ImportJobStore, files repository.ImportFileStore, importer AssetImportService, logger *zap.Logger) *ImportWorker {
	return &ImportWorker{
		jobs:        jobs,
		files:       files,
		importer:    importer,
		logger:      logger,
		pollTimeout: 5 * time.Second,
		now:         time.Now,
	}
}

// Start runs the worker loop in the background until ctx is done.
func (w *ImportWorker) Start(ctx context.Context) {
	go w.Run(ctx)
}

// Run blocks, processing jobs until ctx is done.
func (w *ImportWorker) Run(ctx context.Context) {
	w.logger.Info("Asset import worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("Asset import worker stopping")
			return
		}

		id, err := w.jobs.Dequeue(ctx, w.pollTimeout)
		if errors.Is(err, repository.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("Failed to dequeue import job", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		if err := w.ProcessJob(ctx, id); err != nil {
			w.logger.Error("Import job failed", zap.String("job_id", id), zap.Error(err))
		}
	}
}

// ProcessJob runs the import for one queued job and stores its outcome.
// The staged file is removed once the job reaches a terminal state.
func (w *ImportWorker) ProcessJob(ctx context.Context, id string) error {
	job, err := w.jobs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	job.Status = models.ImportJobProcessing
	job.UpdatedAt = w.now().UTC()
	if err := w.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	runErr := w.run(ctx, job)
	if runErr != nil {
		job.Status = models.ImportJobFailed
		job.Error = apperrors.From(runErr).Message
	} else {
		job.Status = models.ImportJobDone
	}
	job.UpdatedAt = w.now().UTC()

	// the terminal state is stored even when the worker is shutting down,
	// the job id is already off the queue
	finishCtx := context.WithoutCancel(ctx)
	if err := w.files.Delete(finishCtx, job.ObjectKey); err != nil {
		w.logger.Warn("Failed to remove staged import file", zap.String("job_id", id), zap.Error(err))
	}
	if err := w.jobs.Save(finishCtx, job); err != nil {
		return fmt.Errorf("store job result: %w", err)
	}
	return runErr
}

func (w *ImportWorker) run(ctx context.Context, job *models.ImportJob) error {
	data, err := w.files.Get(ctx, job.ObjectKey)
	if err != nil {
		return apperrors.Internal("Arquivo de importação indisponível", err)
	}

	summary, err := w.importer.Import(ctx, ImportRequest{
		ImportID: job.ID,
		CampusID: job.CampusID,
		Data:     data,
		Strict:   job.Strict,
	})
	if err != nil {
		return err
	}

	resp := summary.Response()
	job.Result = &resp
	return nil
}
