// Package calendar implements service.CalendarClient on top of Google Calendar and iCalendar feeds.
package calendar

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/service"

	"github.com/pkg/errors"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultCalendarID = "primary"
	googlePageSize    = 250
	statusCancelled   = "cancelled"
)

type googleClient struct {
	events     *gcal.EventsService
	calendarID string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewGoogleClient creates a read-only Google Calendar client. Options are passed to the API
// client as is; production callers supply option.WithCredentialsFile.
func NewGoogleClient(
	ctx context.Context,
	calendarID string,
	timeout time.Duration,
	logger *slog.Logger,
	opts ...option.ClientOption,
) (service.CalendarClient, error) {
	opts = append(opts, option.WithScopes(gcal.CalendarReadonlyScope))

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar service")
	}

	if calendarID == "" {
		calendarID = defaultCalendarID
	}

	return &googleClient{
		events:     svc.Events,
		calendarID: calendarID,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

func (c *googleClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]entity.CalendarEvent, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	call := c.events.List(c.calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		OrderBy("startTime").
		MaxResults(googlePageSize)

	var (
		out     []entity.CalendarEvent
		pages   int
		dropped int
	)

	err := call.Pages(ctx, func(page *gcal.Events) error {
		pages++
		for _, item := range page.Items {
			event, ok := convertGoogleEvent(item)
			if !ok || !inWindow(event.Start, timeMin, timeMax) {
				dropped++

				continue
			}
			out = append(out, event)
		}

		return nil
	})
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	c.logger.Debug("Listed calendar events",
		slog.String("calendar_id", c.calendarID),
		slog.Int("pages", pages),
		slog.Int("events", len(out)),
		slog.Int("dropped", dropped),
	)

	return out, nil
}

// convertGoogleEvent maps an API item, rejecting entries without an id or a parseable start.
func convertGoogleEvent(item *gcal.Event) (entity.CalendarEvent, bool) {
	if item == nil || item.Id == "" || item.Status == statusCancelled {
		return entity.CalendarEvent{}, false
	}

	start, ok := parseGoogleDateTime(item.Start)
	if !ok {
		return entity.CalendarEvent{}, false
	}
	end, ok := parseGoogleDateTime(item.End)
	if !ok || end.Before(start) {
		end = start
	}

	event := entity.CalendarEvent{
		ID:    item.Id,
		Title: item.Summary,
		Start: start,
		End:   end,
	}
	if item.Description != "" {
		description := item.Description
		event.Description = &description
	}
	if item.Organizer != nil {
		event.OrganizerEmail = strings.TrimSpace(item.Organizer.Email)
	}

	for _, attendee := range item.Attendees {
		if attendee == nil || attendee.Resource {
			continue
		}
		event.Attendees = append(event.Attendees, entity.Attendee{
			Email:       strings.TrimSpace(attendee.Email),
			DisplayName: strings.TrimSpace(attendee.DisplayName),
		})
	}

	return event, true
}

// parseGoogleDateTime reads either the timed or the all-day form. All-day dates are taken as UTC midnight.
func parseGoogleDateTime(dt *gcal.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}

	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}

		return t.UTC(), true
	}

	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	}

	return time.Time{}, false
}

// classifyGoogleError marks throttling and server errors as ErrCalendarUnavailable so the importer retries them.
func classifyGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return errors.Wrapf(domainerrors.ErrCalendarUnavailable.WithDetails(apiErr.Message),
				"google calendar returned %d", apiErr.Code)
		}

		return errors.Wrapf(err, "google calendar returned %d", apiErr.Code)
	}

	return classifyTransportError(err)
}

// classifyTransportError keeps context errors as they are and treats every other transport failure as unavailability.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(err)
	}

	return errors.Wrap(domainerrors.ErrCalendarUnavailable.WithDetails(err.Error()), "calendar request failed")
}

func inWindow(t, timeMin, timeMax time.Time) bool {
	return !t.Before(timeMin) && t.Before(timeMax)
}
