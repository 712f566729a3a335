package usecase

import (
	"context"
	"time"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// ImportUsecase drives chunked calendar imports.
type ImportUsecase interface {
	// StartImport creates a run and processes it in the background.
	StartImport(ctx context.Context, input *StartImportInput) (*entity.ImportRun, error)

	// RunImport creates a run and processes it before returning.
	RunImport(ctx context.Context, input *StartImportInput) (*entity.ImportRun, error)

	// GetImportRun returns the persisted state of a run.
	GetImportRun(ctx context.Context, runID uuid.UUID) (*entity.ImportRun, error)

	// CancelImport stops dispatching new chunks of an active run.
	CancelImport(ctx context.Context, runID uuid.UUID) error

	// ResumeImport processes, in the background, the chunks of a run that did not complete.
	ResumeImport(ctx context.Context, runID uuid.UUID) (*entity.ImportRun, error)

	// Shutdown cancels active runs and waits for their in-flight chunks.
	Shutdown(ctx context.Context) error
}

// StartImportInput defines an import over the inclusive calendar days [Start, End].
type StartImportInput struct {
	TeacherID uuid.UUID `json:"teacher_id" validate:"required"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
}
