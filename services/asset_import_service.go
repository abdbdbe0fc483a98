package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
	"github.com/yashrajoria/asset-inventory-backend/repository"
	"go.uber.org/zap"
)

// ImportState is a stage of one import run. Runs only move forward.
type ImportState string

const (
	StateValidated     ImportState = "validated"
	StateParsed        ImportState = "parsed"
	StateDeduplicated  ImportState = "deduplicated"
	StateRoomsResolved ImportState = "rooms_resolved"
	StateInserted      ImportState = "inserted"
	StateSummarized    ImportState = "summarized"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// ImportRequest is one buffered legacy export bound to a campus.
// ImportID is generated when empty.
type ImportRequest struct {
	ImportID string
	CampusID string
	Data     []byte
	Strict   bool
}

// ImportOptions tunes the pipeline.
type ImportOptions struct {
	Format           FileFormat
	StrictDuplicates bool
	RoomWorkers      int
}

// ImportDeps are the collaborators of the import service. Locker, History
// and Notifier are optional.
type ImportDeps struct {
	Assets   repository.AssetRepository
	Rooms    repository.RoomRepository
	Locker   repository.CampusLocker
	History  repository.ImportHistoryRepository
	Notifier ImportNotifier
}

// AssetImportService turns legacy exports into stored assets.
type AssetImportService interface {
	Import(ctx context.Context, req ImportRequest) (*models.ImportSummary, error)
	ListHistory(ctx context.Context, campusID string, limit int) ([]models.ImportHistoryEntry, error)
}

type assetImportServiceImpl struct {
	deps     ImportDeps
	opts     ImportOptions
	resolver *RoomResolver
	inserter *BatchInserter
	logger   *zap.Logger
	now      func() time.Time
}

func NewAssetImportService(deps ImportDeps, opts ImportOptions, logger *zap.Logger) AssetImportService {
	opts.Format = opts.Format.withDefaults()
	return &assetImportServiceImpl{
		deps:     deps,
		opts:     opts,
		resolver: NewRoomResolver(deps.Rooms, opts.RoomWorkers),
		inserter: NewBatchInserter(deps.Assets),
		logger:   logger,
		now:      time.Now,
	}
}

// importJob is the state owned by a single Import call.
type importJob struct {
	id       string
	campusID string
	strict   bool
	state    ImportState
	rooms    *RoomCache
	summary  models.ImportSummary
	logger   *zap.Logger
}

func (j *importJob) advance(state ImportState) {
	j.state = state
	j.logger.Debug("Import state changed", zap.String("state", string(state)))
}

func (s *assetImportServiceImpl) Import(ctx context.Context, req ImportRequest) (*models.ImportSummary, error) {
	campusID := strings.TrimSpace(req.CampusID)
	if campusID == "" {
		return nil, apperrors.BadRequest("campusId é obrigatório")
	}
	if len(req.Data) == 0 {
		return nil, apperrors.BadRequest("Arquivo vazio")
	}

	importID := req.ImportID
	if importID == "" {
		importID = uuid.NewString()
	}
	job := &importJob{
		id:       importID,
		campusID: campusID,
		strict:   req.Strict || s.opts.StrictDuplicates,
		rooms:    NewRoomCache(),
		logger:   s.logger.With(zap.String("import_id", importID), zap.String("campus_id", campusID)),
	}
	job.advance(StateValidated)

	if s.deps.Locker != nil {
		release, err := s.deps.Locker.Acquire(ctx, campusID)
		if errors.Is(err, repository.ErrLockHeld) {
			return nil, apperrors.Conflict("Já existe uma importação em andamento para este campus")
		}
		if err != nil {
			return nil, fmt.Errorf("lock campus %s: %w", campusID, err)
		}
		defer func() {
			// release must run even when ctx was cancelled mid-import
			if err := release(context.WithoutCancel(ctx)); err != nil {
				job.logger.Warn("Failed to release campus lock", zap.Error(err))
			}
		}()
	}

	started := s.now()
	if err := s.run(ctx, job, req.Data); err != nil {
		job.logger.Error("Import aborted", zap.String("state", string(job.state)), zap.Error(err))
		if s.deps.Notifier != nil {
			s.deps.Notifier.ImportFailed(context.WithoutCancel(ctx), campusID)
		}
		return nil, err
	}

	summary := job.summary
	if summary.Processed > 0 {
		s.recordCompletion(ctx, job, s.now().Sub(started))
	}
	return &summary, nil
}

func (s *assetImportServiceImpl) run(ctx context.Context, job *importJob, data []byte) error {
	records := slices.Collect(ParseRecords(data, s.opts.Format))
	job.summary.Processed = len(records)
	job.advance(StateParsed)

	if len(records) == 0 {
		job.advance(StateSummarized)
		return nil
	}

	pending, err := s.deduplicate(ctx, job, records)
	if err != nil {
		return err
	}
	job.advance(StateDeduplicated)

	keys := make([]models.RoomKey, len(pending))
	for i, rec := range pending {
		keys[i] = roomKeyFor(rec.Location, job.campusID)
	}
	if err := s.resolver.ResolveAll(ctx, job.rooms, keys); err != nil {
		return fmt.Errorf("resolve rooms: %w", err)
	}
	job.advance(StateRoomsResolved)

	now := s.now().UTC()
	drafts := make([]models.Asset, 0, len(pending))
	for i, rec := range pending {
		room, _ := job.rooms.Get(keys[i])
		drafts = append(drafts, buildAsset(rec, room, job.campusID, now))
	}

	inserted, insertErrs, err := s.inserter.Insert(ctx, drafts)
	if err != nil {
		return err
	}
	job.summary.Inserted = inserted
	job.summary.Errors = append(job.summary.Errors, insertErrs...)
	job.advance(StateInserted)

	job.summary.Skipped = job.summary.Processed - job.summary.Inserted
	job.advance(StateSummarized)

	job.logger.Info("Import finished",
		zap.Int("processed", job.summary.Processed),
		zap.Int("inserted", job.summary.Inserted),
		zap.Int("skipped", job.summary.Skipped),
		zap.Int("errors", len(job.summary.Errors)),
		zap.Int("rooms", job.rooms.Len()),
	)
	return nil
}

// deduplicate drops records whose tombo is known, reporting each one.
func (s *assetImportServiceImpl) deduplicate(ctx context.Context, job *importJob, records []models.ParsedRecord) ([]models.ParsedRecord, error) {
	filter := NewDuplicateFilter(s.deps.Assets, job.strict)
	if err := filter.Load(ctx, records); err != nil {
		return nil, err
	}

	pending := make([]models.ParsedRecord, 0, len(records))
	for _, rec := range records {
		line := rec.Line
		switch {
		case filter.IsDuplicate(rec.Tombo):
			job.summary.AddError(models.ImportErrorDuplicate,
				fmt.Sprintf("Bem com tombo %s já cadastrado", rec.Tombo), &line)
		case filter.Repeated(rec.Tombo):
			job.summary.AddError(models.ImportErrorDuplicate,
				fmt.Sprintf("Tombo %s repetido no arquivo", rec.Tombo), &line)
		default:
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

func (s *assetImportServiceImpl) recordCompletion(ctx context.Context, job *importJob, latency time.Duration) {
	completedAt := s.now().UTC()

	if s.deps.History != nil {
		entry := models.ImportHistoryEntry{
			CampusID:    job.campusID,
			ImportID:    job.id,
			CreatedAt:   completedAt,
			Processed:   job.summary.Processed,
			Inserted:    job.summary.Inserted,
			Skipped:     job.summary.Skipped,
			ErrorsCount: len(job.summary.Errors),
			Strict:      job.strict,
		}
		if err := s.deps.History.Record(ctx, entry); err != nil {
			job.logger.Error("Failed to record import history", zap.Error(err))
		}
	}

	if s.deps.Notifier != nil {
		s.deps.Notifier.ImportCompleted(ctx, models.ImportCompletedEvent{
			ImportID:    job.id,
			CampusID:    job.campusID,
			Processed:   job.summary.Processed,
			Inserted:    job.summary.Inserted,
			Skipped:     job.summary.Skipped,
			ErrorsCount: len(job.summary.Errors),
			Timestamp:   completedAt,
		}, latency)
	}
}

func (s *assetImportServiceImpl) ListHistory(ctx context.Context, campusID string, limit int) ([]models.ImportHistoryEntry, error) {
	campusID = strings.TrimSpace(campusID)
	if campusID == "" {
		return nil, apperrors.BadRequest("campusId é obrigatório")
	}
	if s.deps.History == nil {
		return []models.ImportHistoryEntry{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	entries, err := s.deps.History.ListByCampus(ctx, campusID, limit)
	if err != nil {
		return nil, apperrors.Internal("Falha ao consultar histórico de importações", err)
	}
	return entries, nil
}
