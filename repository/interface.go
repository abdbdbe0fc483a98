package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yashrajoria/asset-inventory-backend/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrLockHeld is returned when another import owns the campus lock.
	ErrLockHeld = errors.New("lock held by another import")
	// ErrQueueEmpty is returned when a dequeue times out with no job.
	ErrQueueEmpty = errors.New("queue empty")
)

// WriteFailure is one document rejected by an unordered bulk write.
// Index refers to the position in the submitted slice.
type WriteFailure struct {
	Index   int
	Code    int
	Message string
}

// Duplicate reports whether the failure is a unique index violation.
func (f WriteFailure) Duplicate() bool {
	return f.Code == 11000 || f.Code == 11001 || f.Code == 12582
}

// AssetRepository persists assets. Implementations never expose driver types.
type AssetRepository interface {
	// FindExistingTombos returns the subset of tombos already stored.
	FindExistingTombos(ctx context.Context, tombos []string) (map[string]struct{}, error)
	// InsertMany submits all assets in one unordered write. Per-document
	// rejections come back as failures; err is reserved for the write as a whole.
	InsertMany(ctx context.Context, assets []models.Asset) (int, []WriteFailure, error)
	EnsureIndexes(ctx context.Context) error
}

// RoomRepository persists rooms keyed by (name, block, campus).
type RoomRepository interface {
	FindByKey(ctx context.Context, key models.RoomKey) (*models.Room, error)
	// Create inserts room unless one with the same key exists, returning the stored room.
	Create(ctx context.Context, room *models.Room) (*models.Room, error)
	EnsureIndexes(ctx context.Context) error
}

// ImportJobStore keeps asynchronous import job metadata and the work queue.
type ImportJobStore interface {
	Create(ctx context.Context, job *models.ImportJob) error
	Get(ctx context.Context, id string) (*models.ImportJob, error)
	Save(ctx context.Context, job *models.ImportJob) error
	Enqueue(ctx context.Context, id string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// CampusLocker serializes imports per campus. The returned release func
// is safe to call once the lock has expired.
type CampusLocker interface {
	Acquire(ctx context.Context, campusID string) (release func(context.Context) error, err error)
}

// ImportFileStore stages raw upload buffers for asynchronous imports.
type ImportFileStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ImportHistoryRepository records completed imports.
type ImportHistoryRepository interface {
	Record(ctx context.Context, entry models.ImportHistoryEntry) error
	// ListByCampus returns the latest entries first.
	ListByCampus(ctx context.Context, campusID string, limit int) ([]models.ImportHistoryEntry, error)
}
