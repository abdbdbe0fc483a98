package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yashrajoria/asset-inventory-backend/models"
)

const (
	importQueueKey   = "asset_import:queue"
	importJobPrefix  = "asset_import:job:"
	importJobTimeout = 24 * time.Hour
)

// RedisImportJobStore keeps job metadata as JSON strings and the queue as a list.
type RedisImportJobStore struct {
	rdb *redis.Client
}

func NewImportJobStore(rdb *redis.Client) *RedisImportJobStore {
	return &RedisImportJobStore{rdb: rdb}
}

func jobKey(id string) string {
	return importJobPrefix + id
}

func (s *RedisImportJobStore) Create(ctx context.Context, job *models.ImportJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal import job: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, jobKey(job.ID), b, importJobTimeout).Result()
	if err != nil {
		return fmt.Errorf("store import job: %w", err)
	}
	if !ok {
		return fmt.Errorf("import job %s already exists", job.ID)
	}
	return nil
}

func (s *RedisImportJobStore) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	val, err := s.rdb.Get(ctx, jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read import job: %w", err)
	}

	var job models.ImportJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("parse import job %s: %w", id, err)
	}
	return &job, nil
}

// Save overwrites the job metadata and refreshes its TTL.
func (s *RedisImportJobStore) Save(ctx context.Context, job *models.ImportJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal import job: %w", err)
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), b, importJobTimeout).Err(); err != nil {
		return fmt.Errorf("store import job: %w", err)
	}
	return nil
}

func (s *RedisImportJobStore) Enqueue(ctx context.Context, id string) error {
	if err := s.rdb.RPush(ctx, importQueueKey, id).Err(); err != nil {
		return fmt.Errorf("enqueue import job: %w", err)
	}
	return nil
}

// Dequeue blocks for up to timeout waiting for the next job id.
func (s *RedisImportJobStore) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.rdb.BLPop(ctx, timeout, importQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", fmt.Errorf("dequeue import job: %w", err)
	}
	if len(res) < 2 {
		return "", ErrQueueEmpty
	}
	return res[1], nil
}
