package impl

import (
	"time"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
)

// LessonMaterializer turns a resolved calendar event into a lesson record.
type LessonMaterializer struct {
	now func() time.Time
}

// NewLessonMaterializer creates a materializer; a nil clock means time.Now.
func NewLessonMaterializer(now func() time.Time) *LessonMaterializer {
	if now == nil {
		now = time.Now
	}

	return &LessonMaterializer{now: now}
}

// Materialize builds the lesson. Status is COMPLETED when the event started strictly before now,
// otherwise SCHEDULED. The importer never assigns CANCELLED.
func (m *LessonMaterializer) Materialize(studentID, teacherID uuid.UUID, event *entity.CalendarEvent) *entity.Lesson {
	status := entity.LessonStatusScheduled
	if event.Start.Before(m.now()) {
		status = entity.LessonStatusCompleted
	}

	return &entity.Lesson{
		ID:              uuid.New(),
		StudentID:       studentID,
		TeacherID:       teacherID,
		Title:           event.Title,
		ScheduledAt:     event.Start,
		Status:          status,
		Source:          entity.LessonSourceCalendar,
		ExternalEventID: event.ID,
	}
}
