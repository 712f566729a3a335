package impl

import (
	"testing"
	"time"

	"lessonsync/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLessonMaterializer_Status(t *testing.T) {
	materializer := NewLessonMaterializer(fixedClock)
	studentID, teacherID := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		start time.Time
		want  entity.LessonStatus
	}{
		{name: "started before now", start: testNow.Add(-time.Minute), want: entity.LessonStatusCompleted},
		{name: "starts exactly now", start: testNow, want: entity.LessonStatusScheduled},
		{name: "starts later", start: testNow.Add(24 * time.Hour), want: entity.LessonStatusScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := lessonEvent("evt-1", tt.start, "s@example.com", "S")
			lesson := materializer.Materialize(studentID, teacherID, &event)

			assert.Equal(t, tt.want, lesson.Status)
			assert.NotEqual(t, entity.LessonStatusCancelled, lesson.Status)
		})
	}
}

func TestLessonMaterializer_Fields(t *testing.T) {
	materializer := NewLessonMaterializer(fixedClock)
	studentID, teacherID := uuid.New(), uuid.New()
	event := lessonEvent("evt-42", at(2024, time.January, 3, 10), "s@example.com", "S")

	lesson := materializer.Materialize(studentID, teacherID, &event)

	assert.NotEqual(t, uuid.Nil, lesson.ID)
	assert.Equal(t, studentID, lesson.StudentID)
	assert.Equal(t, teacherID, lesson.TeacherID)
	assert.Equal(t, event.Title, lesson.Title)
	assert.Equal(t, event.Start, lesson.ScheduledAt)
	assert.Equal(t, entity.LessonSourceCalendar, lesson.Source)
	assert.Equal(t, "evt-42", lesson.ExternalEventID)
}
