package calendar

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainerrors "lessonsync/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFeed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//lessonsync//test//EN",
	"BEGIN:VEVENT",
	"UID:single-1",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240201T100000Z",
	"DTEND:20240201T110000Z",
	"SUMMARY:Trial lesson",
	"DESCRIPTION:Powered by Calendly.com",
	"ORGANIZER:mailto:teacher@example.com",
	"ATTENDEE;CN=Student One:mailto:s@x.com",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:weekly-1",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240205T090000Z",
	"DTEND:20240205T100000Z",
	"SUMMARY:Weekly lesson",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE:20240212T090000Z",
	"ATTENDEE:MAILTO:w@x.com",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:weekly-1",
	"DTSTAMP:20240101T000000Z",
	"RECURRENCE-ID:20240219T090000Z",
	"DTSTART:20240219T150000Z",
	"DTEND:20240219T160000Z",
	"SUMMARY:Weekly lesson (moved)",
	"ATTENDEE:mailto:w@x.com",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240203T090000Z",
	"SUMMARY:No uid",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func serveFeed(t *testing.T, status int, body string) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	return server.URL
}

func TestICSClient_ListEventsExpandsRecurrences(t *testing.T) {
	client := NewICSClient(serveFeed(t, http.StatusOK, testFeed), time.Second, testLogger())

	events, err := client.ListEvents(context.Background(),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	byID := make(map[string]int, len(events))
	for i, event := range events {
		byID[event.ID] = i
	}
	assert.Len(t, events, 4)
	require.Contains(t, byID, "single-1")
	require.Contains(t, byID, "weekly-1_20240205T090000Z")
	require.Contains(t, byID, "weekly-1_20240219T090000Z")
	require.Contains(t, byID, "weekly-1_20240226T090000Z")
	assert.NotContains(t, byID, "weekly-1_20240212T090000Z")

	single := events[byID["single-1"]]
	assert.Equal(t, "Trial lesson", single.Title)
	assert.Equal(t, "Powered by Calendly.com", single.DescriptionText())
	assert.Equal(t, "teacher@example.com", single.OrganizerEmail)
	require.Len(t, single.Attendees, 1)
	assert.Equal(t, "s@x.com", single.Attendees[0].Email)
	assert.Equal(t, "Student One", single.Attendees[0].DisplayName)
	assert.Equal(t, time.Hour, single.End.Sub(single.Start))

	weekly := events[byID["weekly-1_20240226T090000Z"]]
	assert.Nil(t, weekly.Description)
	assert.Equal(t, "w@x.com", weekly.Attendees[0].Email)
	assert.Equal(t, time.Date(2024, 2, 26, 10, 0, 0, 0, time.UTC), weekly.End)

	moved := events[byID["weekly-1_20240219T090000Z"]]
	assert.Equal(t, "Weekly lesson (moved)", moved.Title)
	assert.Equal(t, time.Date(2024, 2, 19, 15, 0, 0, 0, time.UTC), moved.Start)
}

func TestICSClient_ListEventsHonoursWindow(t *testing.T) {
	client := NewICSClient(serveFeed(t, http.StatusOK, testFeed), time.Second, testLogger())

	events, err := client.ListEvents(context.Background(),
		time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 26, 9, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "weekly-1_20240219T090000Z", events[0].ID)
}

func TestICSClient_ListEventsErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{name: "server error is transient", status: http.StatusBadGateway, wantTransient: true},
		{name: "throttling is transient", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "forbidden is permanent", status: http.StatusForbidden},
		{name: "empty feed is permanent", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewICSClient(serveFeed(t, tt.status, tt.body), time.Second, testLogger())

			_, err := client.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, domainerrors.IsTransient(err))
			assert.Equal(t, tt.wantTransient, errors.Is(err, domainerrors.ErrCalendarUnavailable))
		})
	}
}

func TestStripMailto(t *testing.T) {
	assert.Equal(t, "a@x.com", stripMailto("mailto:a@x.com"))
	assert.Equal(t, "a@x.com", stripMailto(" MAILTO:a@x.com "))
	assert.Equal(t, "a@x.com", stripMailto("a@x.com"))
}
