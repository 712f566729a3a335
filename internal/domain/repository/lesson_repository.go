package repository

import (
	"context"

	"lessonsync/internal/domain/entity"
)

// LessonRepository defines the persistence operations for materialized lessons.
type LessonRepository interface {
	// CreateIfAbsent persists lesson unless a lesson with the same source and external event id
	// exists already. It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, lesson *entity.Lesson) (bool, error)

	// ExistsByExternalID reports whether a lesson was already imported for the event.
	ExistsByExternalID(ctx context.Context, source, externalEventID string) (bool, error)
}
