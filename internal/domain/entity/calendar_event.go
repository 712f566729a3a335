package entity

import "time"

// Attendee is a calendar event participant as reported by the calendar provider.
type Attendee struct {
	Email       string
	DisplayName string
}

// CalendarEvent is a read-only event fetched from the external calendar.
// It is consumed by the importer and never persisted as-is.
type CalendarEvent struct {
	ID             string
	Title          string
	Description    *string // Nil when the provider returned no description.
	Start          time.Time
	End            time.Time
	Attendees      []Attendee
	OrganizerEmail string
}

// DescriptionText returns the description or an empty string.
func (e *CalendarEvent) DescriptionText() string {
	if e.Description == nil {
		return ""
	}

	return *e.Description
}
