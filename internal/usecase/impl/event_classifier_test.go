package impl

import (
	"testing"

	"lessonsync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestEventClassifier_IsLesson(t *testing.T) {
	classifier := NewEventClassifier("")

	tests := []struct {
		name        string
		description *string
		want        bool
	}{
		{name: "booking footer", description: stringPtr("Event Name: Piano\n\nPowered by Calendly.com"), want: true},
		{name: "marker mid text", description: stringPtr("x Powered by Calendly.com y"), want: true},
		{name: "personal event", description: stringPtr("Dentist"), want: false},
		{name: "different case", description: stringPtr("powered by calendly.com"), want: false},
		{name: "empty description", description: stringPtr(""), want: false},
		{name: "no description", description: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &entity.CalendarEvent{ID: "evt", Description: tt.description}
			assert.Equal(t, tt.want, classifier.IsLesson(event))
		})
	}
}

func TestEventClassifier_CustomMarker(t *testing.T) {
	classifier := NewEventClassifier("Booked via Acme")

	assert.True(t, classifier.IsLesson(&entity.CalendarEvent{Description: stringPtr("Booked via Acme")}))
	assert.False(t, classifier.IsLesson(&entity.CalendarEvent{Description: stringPtr(DefaultBookingMarker)}))
	assert.False(t, classifier.IsLesson(nil))
}
