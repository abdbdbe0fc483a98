package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/repository"
	"golang.org/x/sync/errgroup"
)

// RoomCache memoizes resolved rooms for the lifetime of one import.
type RoomCache struct {
	mu    sync.Mutex
	rooms map[models.RoomKey]*models.Room
}

func NewRoomCache() *RoomCache {
	return &RoomCache{rooms: make(map[models.RoomKey]*models.Room)}
}

func (c *RoomCache) Get(key models.RoomKey) (*models.Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[key]
	return r, ok
}

func (c *RoomCache) Put(key models.RoomKey, room *models.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[key] = room
}

func (c *RoomCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// RoomResolver implements get-or-create for rooms.
type RoomResolver struct {
	repo    repository.RoomRepository
	workers int
	now     func() time.Time
}

// NewRoomResolver returns a resolver that resolves up to workers distinct
// keys at a time. workers <= 1 resolves sequentially.
func NewRoomResolver(repo repository.RoomRepository, workers int) *RoomResolver {
	if workers < 1 {
		workers = 1
	}
	return &RoomResolver{repo: repo, workers: workers, now: time.Now}
}

// Resolve returns the room for key, consulting cache, then storage, and
// creating the room as a last resort. The outcome is cached.
func (r *RoomResolver) Resolve(ctx context.Context, cache *RoomCache, key models.RoomKey) (*models.Room, error) {
	if room, ok := cache.Get(key); ok {
		return room, nil
	}

	room, err := r.repo.FindByKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		room, err = r.repo.Create(ctx, &models.Room{
			ID:        uuid.NewString(),
			Name:      key.Name,
			Block:     key.Block,
			CampusID:  key.CampusID,
			CreatedAt: r.now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("create room %q (%s): %w", key.Name, key.Block, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("lookup room %q (%s): %w", key.Name, key.Block, err)
	}

	cache.Put(key, room)
	return room, nil
}

// ResolveAll resolves every distinct key into cache. The first failure
// aborts the remaining work.
func (r *RoomResolver) ResolveAll(ctx context.Context, cache *RoomCache, keys []models.RoomKey) error {
	distinct := make([]models.RoomKey, 0, len(keys))
	seen := make(map[models.RoomKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, k)
	}

	if r.workers == 1 {
		for _, k := range distinct {
			if _, err := r.Resolve(ctx, cache, k); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, k := range distinct {
		g.Go(func() error {
			_, err := r.Resolve(gctx, cache, k)
			return err
		})
	}
	return g.Wait()
}
