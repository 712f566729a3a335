// Package service defines the interfaces of the external collaborators the use cases depend on.
package service

import (
	"context"
	"time"

	"lessonsync/internal/domain/entity"
)

// CalendarClient lists the events of the configured external calendar.
// Returned events are untrusted; implementations drop entries without an id or a start time.
type CalendarClient interface {
	// ListEvents returns every event starting in [timeMin, timeMax), following provider pagination.
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]entity.CalendarEvent, error)
}
