package impl

import (
	"testing"

	"lessonsync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestExtractAttendee(t *testing.T) {
	tests := []struct {
		name      string
		attendees []entity.Attendee
		wantOK    bool
		want      entity.Attendee
	}{
		{
			name: "skips organizer and strips artifact",
			attendees: []entity.Attendee{
				{Email: testOrganizerEmail, DisplayName: "Teacher"},
				{Email: "jane@example.com", DisplayName: "$$$ Jane Doe"},
			},
			wantOK: true,
			want:   entity.Attendee{Email: "jane@example.com", DisplayName: "Jane Doe"},
		},
		{
			name: "organizer compared case-insensitively",
			attendees: []entity.Attendee{
				{Email: "Teacher@Example.com ", DisplayName: "Teacher"},
				{Email: "bob@example.com", DisplayName: "Bob"},
			},
			wantOK: true,
			want:   entity.Attendee{Email: "bob@example.com", DisplayName: "Bob"},
		},
		{
			name: "first non-organizer wins",
			attendees: []entity.Attendee{
				{Email: "first@example.com", DisplayName: "First"},
				{Email: "second@example.com", DisplayName: "Second"},
			},
			wantOK: true,
			want:   entity.Attendee{Email: "first@example.com", DisplayName: "First"},
		},
		{
			name: "only the organizer",
			attendees: []entity.Attendee{
				{Email: testOrganizerEmail, DisplayName: "Teacher"},
			},
			wantOK: true,
			want:   entity.Attendee{Email: testOrganizerEmail, DisplayName: "Teacher"},
		},
		{
			name:      "no attendees",
			attendees: nil,
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAttendee(tt.attendees, testOrganizerEmail)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanDisplayName(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanDisplayName("$$$ Jane Doe"))
	assert.Equal(t, "Jane Doe", CleanDisplayName("  Jane Doe$$$ "))
	assert.Equal(t, "", CleanDisplayName("$$$"))
}

func TestSplitDisplayName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		email       string
		wantFirst   string
		wantLast    string
	}{
		{name: "two tokens", displayName: "Jane Doe", email: "jane@example.com", wantFirst: "Jane", wantLast: "Doe"},
		{name: "several last names", displayName: "Ana María López García", email: "a@example.com", wantFirst: "Ana", wantLast: "María López García"},
		{name: "single token", displayName: "Cher", email: "cher@example.com", wantFirst: "Cher", wantLast: ""},
		{name: "artifact only falls back to email", displayName: "$$$", email: "j.doe@example.com", wantFirst: "j.doe", wantLast: ""},
		{name: "empty falls back to email", displayName: "", email: "kim@example.com", wantFirst: "kim", wantLast: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitDisplayName(tt.displayName, tt.email)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}
