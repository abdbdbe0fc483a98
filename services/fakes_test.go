package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/repository"
)

// row builds one data line with the consumed columns filled in.
func row(description, location, cents, tombo, responsible string) string {
	fields := make([]string, 24)
	fields[0] = "[%]"
	fields[2] = description
	fields[4] = location
	fields[10] = cents
	fields[15] = tombo
	fields[23] = responsible
	return strings.Join(fields, "|")
}

func file(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// --- fakeAssetRepo ---

type fakeAssetRepo struct {
	mu          sync.Mutex
	stored      map[string]models.Asset
	findCalls   int
	insertCalls int
	lastInsert  []models.Asset
	findErr     error
	insertErr   error
}

func newFakeAssetRepo(existingTombos ...string) *fakeAssetRepo {
	r := &fakeAssetRepo{stored: map[string]models.Asset{}}
	for _, t := range existingTombos {
		r.stored[t] = models.Asset{ID: "existing-" + t, Tombo: t}
	}
	return r
}

func (r *fakeAssetRepo) FindExistingTombos(_ context.Context, tombos []string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := map[string]struct{}{}
	for _, t := range tombos {
		if _, ok := r.stored[t]; ok {
			out[t] = struct{}{}
		}
	}
	return out, nil
}

// InsertMany mimics an unordered write against a unique tombo index.
func (r *fakeAssetRepo) InsertMany(_ context.Context, assets []models.Asset) (int, []repository.WriteFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	r.lastInsert = append([]models.Asset(nil), assets...)
	if r.insertErr != nil {
		return 0, nil, r.insertErr
	}

	var failures []repository.WriteFailure
	inserted := 0
	for i, a := range assets {
		if a.Tombo != "" {
			if _, ok := r.stored[a.Tombo]; ok {
				failures = append(failures, repository.WriteFailure{Index: i, Code: 11000, Message: "E11000 duplicate key"})
				continue
			}
		}
		key := a.Tombo
		if key == "" {
			key = a.ID
		}
		r.stored[key] = a
		inserted++
	}
	return inserted, failures, nil
}

func (r *fakeAssetRepo) EnsureIndexes(context.Context) error { return nil }

// --- fakeRoomRepo ---

type fakeRoomRepo struct {
	mu          sync.Mutex
	rooms       map[models.RoomKey]*models.Room
	findCalls   int
	createCalls int
	findErr     error
	createErr   error
}

func newFakeRoomRepo(existing ...*models.Room) *fakeRoomRepo {
	r := &fakeRoomRepo{rooms: map[models.RoomKey]*models.Room{}}
	for _, room := range existing {
		r.rooms[room.Key()] = room
	}
	return r
}

func (r *fakeRoomRepo) FindByKey(_ context.Context, key models.RoomKey) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	room, ok := r.rooms[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return room, nil
}

func (r *fakeRoomRepo) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	if existing, ok := r.rooms[room.Key()]; ok {
		return existing, nil
	}
	r.rooms[room.Key()] = room
	return room, nil
}

func (r *fakeRoomRepo) EnsureIndexes(context.Context) error { return nil }

// --- fakeLocker ---

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
	err      error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Acquire(_ context.Context, campusID string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held[campusID] {
		return nil, repository.ErrLockHeld
	}
	l.held[campusID] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, campusID)
		l.released++
		return nil
	}, nil
}

// --- fakeHistory ---

type fakeHistory struct {
	entries   []models.ImportHistoryEntry
	lastLimit int
	err       error
}

func (h *fakeHistory) Record(_ context.Context, e models.ImportHistoryEntry) error {
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, e)
	return nil
}

func (h *fakeHistory) ListByCampus(_ context.Context, campusID string, limit int) ([]models.ImportHistoryEntry, error) {
	h.lastLimit = limit
	if h.err != nil {
		return nil, h.err
	}
	var out []models.ImportHistoryEntry
	for _, e := range h.entries {
		if e.CampusID == campusID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- fakeNotifier ---

type fakeNotifier struct {
	events   []models.ImportCompletedEvent
	failures []string
}

func (n *fakeNotifier) ImportCompleted(_ context.Context, e models.ImportCompletedEvent, _ time.Duration) {
	n.events = append(n.events, e)
}

func (n *fakeNotifier) ImportFailed(_ context.Context, campusID string) {
	n.failures = append(n.failures, campusID)
}

// --- fakeJobStore ---

type fakeJobStore struct {
	mu    sync.Mutex
	jobs  map[string]models.ImportJob
	queue []string
	saves []models.ImportJobStatus
	err   error

	dequeueErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]models.ImportJob{}}
}

func (s *fakeJobStore) Create(_ context.Context, job *models.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *fakeJobStore) Get(_ context.Context, id string) (*models.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &job, nil
}

func (s *fakeJobStore) Save(ctx context.Context, job *models.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.jobs[job.ID] = *job
	s.saves = append(s.saves, job.Status)
	return nil
}

func (s *fakeJobStore) Enqueue(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, id)
	return nil
}

func (s *fakeJobStore) Dequeue(ctx context.Context, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.dequeueErr != nil {
		return "", s.dequeueErr
	}
	if len(s.queue) == 0 {
		return "", repository.ErrQueueEmpty
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	return id, nil
}

// --- fakeFileStore ---

type fakeFileStore struct {
	mu     sync.Mutex
	files  map[string][]byte
	putErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (s *fakeFileStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.files[key] = data
	return nil
}

func (s *fakeFileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return data, nil
}

func (s *fakeFileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(s.files, key)
	return nil
}
