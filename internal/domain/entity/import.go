package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a calendar-month window [Start, End) used to paginate a bulk import.
type Chunk struct {
	Start time.Time
	End   time.Time
	Label string // YYYY-MM of the window's month.
}

// ImportRunStatus is the state of an import run.
type ImportRunStatus string

const (
	ImportRunStatusRunning   ImportRunStatus = "RUNNING"
	ImportRunStatusCompleted ImportRunStatus = "COMPLETED"
	ImportRunStatusCancelled ImportRunStatus = "CANCELLED"
	ImportRunStatusFailed    ImportRunStatus = "FAILED"
)

// ChunkStatus is the state of a single chunk within a run.
type ChunkStatus string

const (
	ChunkStatusCompleted ChunkStatus = "COMPLETED"
	ChunkStatusFailed    ChunkStatus = "FAILED"
)

// SkipReason explains why an event did not become a lesson.
type SkipReason string

const (
	SkipReasonNotLesson       SkipReason = "NOT_A_LESSON"
	SkipReasonNoAttendee      SkipReason = "NO_ATTENDEE"
	SkipReasonAmbiguous       SkipReason = "AMBIGUOUS_MATCH"
	SkipReasonAlreadyImported SkipReason = "ALREADY_IMPORTED"
)

// SkippedEvent records an event that was intentionally not imported.
type SkippedEvent struct {
	ChunkLabel   string
	EventID      string
	Title        string
	StartsAt     time.Time
	Email        string
	Reason       SkipReason
	CandidateIDs []uuid.UUID // Populated for SkipReasonAmbiguous.
}

// EventFailure records an event whose processing hit an invariant violation.
type EventFailure struct {
	ChunkLabel string
	EventID    string
	Email      string
	Error      string
}

// ChunkFailure records a chunk that exhausted its retries.
type ChunkFailure struct {
	Label    string
	Attempts int
	Error    string
}

// ImportSummary aggregates the outcome of an import run.
type ImportSummary struct {
	LessonsCreated        int
	ShadowProfilesCreated int
	Skipped               []SkippedEvent
	FailedEvents          []EventFailure
	FailedChunks          []ChunkFailure
	CompletedChunks       []string
}

// Merge folds another summary into s.
func (s *ImportSummary) Merge(other *ImportSummary) {
	if other == nil {
		return
	}
	s.LessonsCreated += other.LessonsCreated
	s.ShadowProfilesCreated += other.ShadowProfilesCreated
	s.Skipped = append(s.Skipped, other.Skipped...)
	s.FailedEvents = append(s.FailedEvents, other.FailedEvents...)
	s.FailedChunks = append(s.FailedChunks, other.FailedChunks...)
	s.CompletedChunks = append(s.CompletedChunks, other.CompletedChunks...)
}

// ImportRun is a persisted bulk import over [RangeStart, RangeEnd].
type ImportRun struct {
	ID         uuid.UUID
	TeacherID  uuid.UUID
	RangeStart time.Time
	RangeEnd   time.Time
	Status     ImportRunStatus
	Summary    ImportSummary
	StartedAt  time.Time
	FinishedAt *time.Time
}
