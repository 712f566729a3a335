package service

import (
	"context"
	"time"
)

// Topics used for domain events.
const (
	TopicProfileMerged   = "profile.merged"
	TopicImportCompleted = "import.completed"
	TopicAccountCreated  = "account.created"
)

// ProfileMergedEvent is emitted after a shadow profile has been migrated onto a real account.
type ProfileMergedEvent struct {
	RequestID string    `json:"request_id,omitempty"` // For distributed tracing
	Email     string    `json:"email"`
	ShadowID  string    `json:"shadow_id"`
	ProfileID string    `json:"profile_id"`
	FullName  string    `json:"full_name,omitempty"`
	MergedAt  time.Time `json:"merged_at"`
	IsStudent bool      `json:"is_student"`
	IsTeacher bool      `json:"is_teacher"`
	IsAdmin   bool      `json:"is_admin"`
}

// ImportCompletedEvent is emitted when an import run reaches a terminal state.
type ImportCompletedEvent struct {
	RequestID             string `json:"request_id,omitempty"`
	RunID                 string `json:"run_id"`
	Status                string `json:"status"`
	LessonsCreated        int    `json:"lessons_created"`
	ShadowProfilesCreated int    `json:"shadow_profiles_created"`
	Skipped               int    `json:"skipped"`
	FailedEvents          int    `json:"failed_events"`
	FailedChunks          int    `json:"failed_chunks"`
}

// AccountCreatedEvent is consumed by the sync worker when the auth system provisions an account.
type AccountCreatedEvent struct {
	RequestID string `json:"request_id,omitempty"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishProfileMerged announces a completed merge
	PublishProfileMerged(ctx context.Context, event *ProfileMergedEvent) error

	// PublishImportCompleted announces the summary of a finished import run
	PublishImportCompleted(ctx context.Context, event *ImportCompletedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
