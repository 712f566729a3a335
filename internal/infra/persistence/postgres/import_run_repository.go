package postgres

import (
	"context"
	"encoding/json"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/repository"
	"lessonsync/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// importRunRepository implements the repository.ImportRunRepository interface.
type importRunRepository struct {
	db *gorm.DB
}

// NewImportRunRepository is the constructor for importRunRepository.
func NewImportRunRepository(db *gorm.DB) repository.ImportRunRepository {
	return &importRunRepository{
		db: db,
	}
}

// Create persists a new run.
func (repo *importRunRepository) Create(ctx context.Context, run *entity.ImportRun) error {
	runM := fromImportRunDomain(run)

	if err := repo.db.WithContext(ctx).Create(runM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create import run")
	}

	run.ID = runM.ID

	return nil
}

// FindByID loads a run together with its chunk outcomes and skipped events.
func (repo *importRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ImportRun, error) {
	var runM model.ImportRunModel

	if err := repo.db.WithContext(ctx).
		Preload("Chunks", func(db *gorm.DB) *gorm.DB { return db.Order("label ASC") }).
		Where("id = ?", id).
		First(&runM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrImportRunNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find import run")
	}

	skipped, err := repo.ListSkippedEvents(ctx, id, "")
	if err != nil {
		return nil, err
	}

	run := toImportRunDomain(&runM)
	run.Summary.Skipped = skipped

	return run, nil
}

// UpdateStatus stores the run status, counters and finish time.
func (repo *importRunRepository) UpdateStatus(ctx context.Context, run *entity.ImportRun) error {
	failedEvents, err := json.Marshal(fromEventFailures(run.Summary.FailedEvents))
	if err != nil {
		return errors.Wrap(err, "failed to encode failed events")
	}

	result := repo.db.WithContext(ctx).
		Model(&model.ImportRunModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":                  string(run.Status),
			"lessons_created":         run.Summary.LessonsCreated,
			"shadow_profiles_created": run.Summary.ShadowProfilesCreated,
			"skipped_count":           len(run.Summary.Skipped),
			"failed_events":           gorm.Expr("?::jsonb", string(failedEvents)),
			"finished_at":             run.FinishedAt,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update import run")
	}

	if result.RowsAffected == 0 {
		return repository.ErrImportRunNotFound
	}

	return nil
}

// RecordChunk upserts the outcome of one chunk.
func (repo *importRunRepository) RecordChunk(ctx context.Context, runID uuid.UUID, label string, status entity.ChunkStatus, attempts int, errMsg string) error {
	chunkM := &model.ImportChunkModel{
		RunID:    runID,
		Label:    label,
		Status:   string(status),
		Attempts: attempts,
		Error:    errMsg,
	}

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "label"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "attempts", "error", "updated_at"}),
		}).
		Create(chunkM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrImportRunNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to record import chunk")
	}

	return nil
}

// CompletedChunkLabels returns the labels of chunks that finished successfully.
func (repo *importRunRepository) CompletedChunkLabels(ctx context.Context, runID uuid.UUID) ([]string, error) {
	var labels []string

	if err := repo.db.WithContext(ctx).
		Model(&model.ImportChunkModel{}).
		Where("run_id = ? AND status = ?", runID, string(entity.ChunkStatusCompleted)).
		Order("label ASC").
		Pluck("label", &labels).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list completed chunks")
	}

	return labels, nil
}

// AddSkippedEvents appends events to the review queue.
func (repo *importRunRepository) AddSkippedEvents(ctx context.Context, runID uuid.UUID, events []entity.SkippedEvent) error {
	if len(events) == 0 {
		return nil
	}

	skippedMs := make([]*model.ImportSkippedEventModel, 0, len(events))
	for _, event := range events {
		skippedMs = append(skippedMs, &model.ImportSkippedEventModel{
			ID:           uuid.New(),
			RunID:        runID,
			ChunkLabel:   event.ChunkLabel,
			EventID:      event.EventID,
			Title:        event.Title,
			StartsAt:     event.StartsAt,
			Email:        event.Email,
			Reason:       string(event.Reason),
			CandidateIDs: event.CandidateIDs,
		})
	}

	if err := repo.db.WithContext(ctx).CreateInBatches(skippedMs, 100).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to store skipped events")
	}

	return nil
}

// ListSkippedEvents returns the review queue of a run; an empty reason means all reasons.
func (repo *importRunRepository) ListSkippedEvents(ctx context.Context, runID uuid.UUID, reason entity.SkipReason) ([]entity.SkippedEvent, error) {
	var skippedMs []*model.ImportSkippedEventModel

	query := repo.db.WithContext(ctx).Where("run_id = ?", runID)
	if reason != "" {
		query = query.Where("reason = ?", string(reason))
	}

	if err := query.Order("chunk_label ASC, starts_at ASC").Find(&skippedMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list skipped events")
	}

	events := make([]entity.SkippedEvent, 0, len(skippedMs))
	for _, skippedM := range skippedMs {
		events = append(events, entity.SkippedEvent{
			ChunkLabel:   skippedM.ChunkLabel,
			EventID:      skippedM.EventID,
			Title:        skippedM.Title,
			StartsAt:     skippedM.StartsAt,
			Email:        skippedM.Email,
			Reason:       entity.SkipReason(skippedM.Reason),
			CandidateIDs: skippedM.CandidateIDs,
		})
	}

	return events, nil
}

// --- Mapper Functions ---

func toImportRunDomain(data *model.ImportRunModel) *entity.ImportRun {
	run := &entity.ImportRun{
		ID:         data.ID,
		TeacherID:  data.TeacherID,
		RangeStart: data.RangeStart,
		RangeEnd:   data.RangeEnd,
		Status:     entity.ImportRunStatus(data.Status),
		StartedAt:  data.StartedAt,
		FinishedAt: data.FinishedAt,
		Summary: entity.ImportSummary{
			LessonsCreated:        data.LessonsCreated,
			ShadowProfilesCreated: data.ShadowProfilesCreated,
		},
	}

	for _, failure := range data.FailedEvents {
		run.Summary.FailedEvents = append(run.Summary.FailedEvents, entity.EventFailure{
			ChunkLabel: failure.ChunkLabel,
			EventID:    failure.EventID,
			Email:      failure.Email,
			Error:      failure.Error,
		})
	}

	for _, chunk := range data.Chunks {
		switch entity.ChunkStatus(chunk.Status) {
		case entity.ChunkStatusCompleted:
			run.Summary.CompletedChunks = append(run.Summary.CompletedChunks, chunk.Label)
		case entity.ChunkStatusFailed:
			run.Summary.FailedChunks = append(run.Summary.FailedChunks, entity.ChunkFailure{
				Label:    chunk.Label,
				Attempts: chunk.Attempts,
				Error:    chunk.Error,
			})
		}
	}

	return run
}

func fromImportRunDomain(data *entity.ImportRun) *model.ImportRunModel {
	id := data.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &model.ImportRunModel{
		ID:                    id,
		TeacherID:             data.TeacherID,
		RangeStart:            data.RangeStart,
		RangeEnd:              data.RangeEnd,
		Status:                string(data.Status),
		LessonsCreated:        data.Summary.LessonsCreated,
		ShadowProfilesCreated: data.Summary.ShadowProfilesCreated,
		SkippedCount:          len(data.Summary.Skipped),
		FailedEvents:          fromEventFailures(data.Summary.FailedEvents),
		StartedAt:             data.StartedAt,
		FinishedAt:            data.FinishedAt,
	}
}

func fromEventFailures(failures []entity.EventFailure) []model.FailedEventRecord {
	records := make([]model.FailedEventRecord, 0, len(failures))
	for _, failure := range failures {
		records = append(records, model.FailedEventRecord{
			ChunkLabel: failure.ChunkLabel,
			EventID:    failure.EventID,
			Email:      failure.Email,
			Error:      failure.Error,
		})
	}

	return records
}
