package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGoogleClient(t *testing.T, handler http.HandlerFunc) service.CalendarClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGoogleClient(context.Background(), "", time.Second, testLogger(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestGoogleClient_ListEventsFollowsPages(t *testing.T) {
	var queries []string
	client := newTestGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))

		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, map[string]any{
				"nextPageToken": "page-2",
				"items": []map[string]any{
					{
						"id":          "evt-1",
						"summary":     "Lesson",
						"description": "Powered by Calendly.com",
						"start":       map[string]any{"dateTime": "2024-02-01T10:00:00+08:00"},
						"end":         map[string]any{"dateTime": "2024-02-01T11:00:00+08:00"},
						"organizer":   map[string]any{"email": "teacher@example.com"},
						"attendees": []map[string]any{
							{"email": "teacher@example.com", "organizer": true},
							{"email": "s@x.com", "displayName": "Student One"},
							{"email": "room@resource.calendar.google.com", "resource": true},
						},
					},
					{"summary": "no id", "start": map[string]any{"dateTime": "2024-02-01T12:00:00Z"}},
					{"id": "evt-no-start"},
				},
			})

			return
		}

		writeJSON(t, w, map[string]any{
			"items": []map[string]any{
				{
					"id":    "evt-2",
					"start": map[string]any{"date": "2024-02-02"},
					"end":   map[string]any{"date": "2024-02-03"},
				},
				{
					"id":     "evt-cancelled",
					"status": "cancelled",
					"start":  map[string]any{"dateTime": "2024-02-02T09:00:00Z"},
				},
			},
		})
	})

	events, err := client.ListEvents(context.Background(),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Len(t, queries, 2)

	first := events[0]
	assert.Equal(t, "evt-1", first.ID)
	assert.Equal(t, time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, "Powered by Calendly.com", first.DescriptionText())
	assert.Equal(t, "teacher@example.com", first.OrganizerEmail)
	require.Len(t, first.Attendees, 2)
	assert.Equal(t, "Student One", first.Attendees[1].DisplayName)

	second := events[1]
	assert.Equal(t, "evt-2", second.ID)
	assert.Nil(t, second.Description)
	assert.Equal(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), second.Start)
}

func TestGoogleClient_ListEventsDropsEventsOutsideWindow(t *testing.T) {
	client := newTestGoogleClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"items": []map[string]any{
				{"id": "before", "start": map[string]any{"dateTime": "2024-01-31T23:30:00Z"}},
				{"id": "inside", "start": map[string]any{"dateTime": "2024-02-01T00:00:00Z"}},
				{"id": "at-end", "start": map[string]any{"dateTime": "2024-02-02T00:00:00Z"}},
			},
		})
	})

	events, err := client.ListEvents(context.Background(),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "inside", events[0].ID)
}

func TestGoogleClient_ListEventsErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "server error is transient", status: http.StatusServiceUnavailable, wantTransient: true},
		{name: "throttling is transient", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "not found is permanent", status: http.StatusNotFound, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGoogleClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"boom"}}`, tt.status)
			})

			_, err := client.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, domainerrors.IsTransient(err))
			assert.Equal(t, tt.wantTransient, errors.Is(err, domainerrors.ErrCalendarUnavailable))
		})
	}
}
