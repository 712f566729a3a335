package impl

import (
	"strings"

	"lessonsync/internal/domain/entity"
)

// DefaultBookingMarker is the footer the booking system writes into event descriptions.
const DefaultBookingMarker = "Powered by Calendly.com"

// EventClassifier decides which calendar events are billable lessons.
// Anything without the booking marker is excluded rather than guessed at.
type EventClassifier struct {
	marker string
}

// NewEventClassifier creates a classifier for the given marker; an empty marker means the default.
func NewEventClassifier(marker string) *EventClassifier {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultBookingMarker
	}

	return &EventClassifier{marker: marker}
}

// IsLesson reports whether the event description carries the booking marker.
func (c *EventClassifier) IsLesson(event *entity.CalendarEvent) bool {
	if event == nil || event.Description == nil {
		return false
	}

	return strings.Contains(*event.Description, c.marker)
}
