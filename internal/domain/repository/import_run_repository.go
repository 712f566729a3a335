package repository

import (
	"context"
	"errors"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrImportRunNotFound is returned when an import run is not found.
var ErrImportRunNotFound = errors.New("import run not found")

// ImportRunRepository persists import runs, their chunk progress and the events set aside for review.
type ImportRunRepository interface {
	// Create persists a new run.
	Create(ctx context.Context, run *entity.ImportRun) error

	// FindByID retrieves a run with its summary.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ImportRun, error)

	// UpdateStatus stores the run status, summary counters and finish time.
	UpdateStatus(ctx context.Context, run *entity.ImportRun) error

	// RecordChunk stores the outcome of one chunk. Recording the same label again overwrites it.
	RecordChunk(ctx context.Context, runID uuid.UUID, label string, status entity.ChunkStatus, attempts int, errMsg string) error

	// CompletedChunkLabels returns the labels of chunks that finished successfully.
	CompletedChunkLabels(ctx context.Context, runID uuid.UUID) ([]string, error)

	// AddSkippedEvents appends events that were set aside for manual review.
	AddSkippedEvents(ctx context.Context, runID uuid.UUID, events []entity.SkippedEvent) error

	// ListSkippedEvents returns the events set aside by a run, optionally filtered by reason.
	ListSkippedEvents(ctx context.Context, runID uuid.UUID, reason entity.SkipReason) ([]entity.SkippedEvent, error)
}
