package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
	"github.com/yashrajoria/asset-inventory-backend/repository"
	"go.uber.org/zap"
)

// ImportJobService queues imports for the background worker.
type ImportJobService interface {
	Enqueue(ctx context.Context, campusID string, data []byte, strict bool) (*models.ImportJob, error)
	Status(ctx context.Context, id string) (*models.ImportJob, error)
}

type importJobServiceImpl struct {
	jobs   repository.ImportJobStore
	files  repository.ImportFileStore
	logger *zap.Logger
	now    func() time.Time
}

func NewImportJobService(jobs repository.ImportJobStore, files repository.ImportFileStore, logger *zap.Logger) ImportJobService {
	return &importJobServiceImpl{
		jobs:   jobs,
		files:  files,
		logger: logger,
		now:    time.Now,
	}
}

// Enqueue stages data and pushes a pending job onto the queue.
func (s *importJobServiceImpl) Enqueue(ctx context.Context, campusID string, data []byte, strict bool) (*models.ImportJob, error) {
	campusID = strings.TrimSpace(campusID)
	if campusID == "" {
		return nil, apperrors.BadRequest("campusId é obrigatório")
	}
	if len(data) == 0 {
		return nil, apperrors.BadRequest("Arquivo vazio")
	}

	id := uuid.NewString()
	now := s.now().UTC()
	job := &models.ImportJob{
		ID:        id,
		Status:    models.ImportJobPending,
		CampusID:  campusID,
		Strict:    strict,
		ObjectKey: id + ".txt",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.files.Put(ctx, job.ObjectKey, data); err != nil {
		return nil, apperrors.Internal("Falha ao armazenar arquivo de importação", err)
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.discard(ctx, job)
		return nil, apperrors.Internal("Falha ao registrar importação", err)
	}
	if err := s.jobs.Enqueue(ctx, job.ID); err != nil {
		s.discard(ctx, job)
		return nil, apperrors.Internal("Falha ao enfileirar importação", err)
	}

	s.logger.Info("Import job queued",
		zap.String("job_id", job.ID),
		zap.String("campus_id", campusID),
		zap.Int("bytes", len(data)),
	)
	return job, nil
}

func (s *importJobServiceImpl) discard(ctx context.Context, job *models.ImportJob) {
	if err := s.files.Delete(ctx, job.ObjectKey); err != nil {
		s.logger.Warn("Failed to remove staged import file", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *importJobServiceImpl) Status(ctx context.Context, id string) (*models.ImportJob, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.BadRequest("Job ID required")
	}

	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Job not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve job status", fmt.Errorf("job %s: %w", id, err))
	}
	return job, nil
}
