package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
	"github.com/yashrajoria/asset-inventory-backend/services"
	"go.uber.org/zap"
)

func TestImportJobService_Enqueue(t *testing.T) {
	jobs := newFakeJobStore()
	files := newFakeFileStore()
	svc := services.NewImportJobService(jobs, files, zap.NewNop())

	job, err := svc.Enqueue(context.Background(), "c1", threeRowFile(), true)
	require.NoError(t, err)

	assert.Equal(t, models.ImportJobPending, job.Status)
	assert.Equal(t, "c1", job.CampusID)
	assert.True(t, job.Strict)
	assert.Equal(t, threeRowFile(), files.files[job.ObjectKey])
	assert.Equal(t, []string{job.ID}, jobs.queue)

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, status.ID)
}

func TestImportJobService_EnqueueValidation(t *testing.T) {
	svc := services.NewImportJobService(newFakeJobStore(), newFakeFileStore(), zap.NewNop())

	_, err := svc.Enqueue(context.Background(), "", threeRowFile(), false)
	assert.Equal(t, http.StatusBadRequest, apperrors.From(err).Code)

	_, err = svc.Enqueue(context.Background(), "c1", nil, false)
	assert.Equal(t, http.StatusBadRequest, apperrors.From(err).Code)
}

func TestImportJobService_EnqueueStoreFailureRemovesFile(t *testing.T) {
	jobs := newFakeJobStore()
	jobs.err = errors.New("redis down")
	files := newFakeFileStore()
	svc := services.NewImportJobService(jobs, files, zap.NewNop())

	_, err := svc.Enqueue(context.Background(), "c1", threeRowFile(), false)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.From(err).Code)
	assert.Empty(t, files.files)
	assert.Empty(t, jobs.queue)
}

func TestImportJobService_StatusNotFound(t *testing.T) {
	svc := services.NewImportJobService(newFakeJobStore(), newFakeFileStore(), zap.NewNop())

	_, err := svc.Status(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, apperrors.From(err).Code)
}
