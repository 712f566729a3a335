package entity

import (
	"time"

	"github.com/google/uuid"
)

// LessonStatus is the lifecycle state of a lesson.
type LessonStatus string

const (
	// LessonStatusScheduled marks a lesson that has not started yet.
	LessonStatusScheduled LessonStatus = "SCHEDULED"
	// LessonStatusCompleted marks a lesson whose start time has passed.
	LessonStatusCompleted LessonStatus = "COMPLETED"
	// LessonStatusCancelled is set by users downstream; the importer never assigns it.
	LessonStatusCancelled LessonStatus = "CANCELLED"
)

// LessonSourceCalendar marks lessons materialized from a calendar import.
const LessonSourceCalendar = "calendar"

// Lesson is a billable tutoring session bound to a resolved student profile.
type Lesson struct {
	ID              uuid.UUID
	StudentID       uuid.UUID
	TeacherID       uuid.UUID
	Title           string
	ScheduledAt     time.Time
	Status          LessonStatus
	Source          string // Origin marker; LessonSourceCalendar for imported lessons.
	ExternalEventID string // Calendar event id, unique per source.
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
