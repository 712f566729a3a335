// Package impl contains the application-specific business rules implementations.
package impl

import (
	"time"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
)

const chunkLabelLayout = "2006-01"

// PlanChunks splits the inclusive calendar days [start, end] into month-aligned half-open windows.
// Days are taken in start's location. The first window begins at start's day and the last one ends
// at midnight after end's day, so the windows cover the range exactly.
func PlanChunks(start, end time.Time) ([]entity.Chunk, error) {
	loc := start.Location()
	first := truncateToDay(start, loc)
	last := truncateToDay(end.In(loc), loc)

	if last.Before(first) {
		return nil, domainerrors.ErrValidationFailed.WithDetails("end date is before start date")
	}

	limit := last.AddDate(0, 0, 1)
	chunks := make([]entity.Chunk, 0, monthsBetween(first, last)+1)

	for cursor := first; cursor.Before(limit); {
		nextMonth := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)

		windowEnd := nextMonth
		if limit.Before(windowEnd) {
			windowEnd = limit
		}

		chunks = append(chunks, entity.Chunk{
			Start: cursor,
			End:   windowEnd,
			Label: cursor.Format(chunkLabelLayout),
		})
		cursor = nextMonth
	}

	return chunks, nil
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
