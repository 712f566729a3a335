package calendar

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/service"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"
)

const (
	maxICSBodySize         = 16 << 20
	maxOccurrencesPerEvent = 5000
	mailtoPrefix           = "mailto:"
	icsOccurrenceLayout    = "20060102T150405Z"
)

type icsClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewICSClient creates a client that downloads an iCalendar feed and expands its recurring events.
func NewICSClient(url string, timeout time.Duration, logger *slog.Logger) service.CalendarClient {
	return &icsClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// icsEvent is a VEVENT before recurrence expansion.
type icsEvent struct {
	uid         string
	title       string
	description *string
	start       time.Time
	end         time.Time
	attendees   []entity.Attendee
	organizer   string
	rawRRule    string
	exDates     []time.Time
	recurrence  *time.Time
}

func (c *icsClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]entity.CalendarEvent, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	events, err := parseICS(body, c.logger)
	if err != nil {
		return nil, err
	}

	out := expandICSEvents(events, timeMin, timeMax, c.logger)

	c.logger.Debug("Listed ics events",
		slog.Int("vevents", len(events)),
		slog.Int("events", len(out)),
	)

	return out, nil
}

func (c *icsClient) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build ics request")
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Wrapf(domainerrors.ErrCalendarUnavailable.WithDetails(resp.Status),
			"ics feed returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("ics feed returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxICSBodySize))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return body, nil
}

// parseICS reads every VEVENT. Events without a UID or a start are logged and skipped.
func parseICS(body []byte, logger *slog.Logger) ([]icsEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ics body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ics feed")
	}

	events := make([]icsEvent, 0, len(cal.Events()))
	for _, vevent := range cal.Events() {
		event, perr := parseVEvent(vevent)
		if perr != nil {
			logger.Warn("Skipping malformed vevent", slog.Any("error", perr))

			continue
		}
		events = append(events, event)
	}

	return events, nil
}

func parseVEvent(vevent *ical.VEvent) (icsEvent, error) {
	var out icsEvent

	uid := vevent.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return out, errors.New("missing UID")
	}
	out.uid = strings.TrimSpace(uid.Value)

	start, err := vevent.GetStartAt()
	if err != nil {
		return out, errors.Wrapf(err, "event %s has no usable DTSTART", out.uid)
	}
	out.start = start

	end, err := vevent.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	out.end = end

	if p := vevent.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.title = p.Value
	}
	if p := vevent.GetProperty(ical.ComponentPropertyDescription); p != nil {
		description := p.Value
		out.description = &description
	}
	if p := vevent.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		out.organizer = stripMailto(p.Value)
	}

	for _, p := range vevent.GetProperties(ical.ComponentPropertyAttendee) {
		attendee := entity.Attendee{Email: stripMailto(p.Value)}
		if cn, ok := p.ICalParameters[string(ical.ParameterCn)]; ok && len(cn) > 0 {
			attendee.DisplayName = strings.TrimSpace(cn[0])
		}
		out.attendees = append(out.attendees, attendee)
	}

	if p := vevent.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rawRRule = p.Value
	}

	for _, p := range vevent.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, perr := parseICSTime(part, start.Location()); perr == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	if p := vevent.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, perr := parseICSTime(p.Value, start.Location()); perr == nil {
			out.recurrence = &t
		}
	}

	return out, nil
}

// expandICSEvents turns VEVENTs into concrete occurrences starting in [timeMin, timeMax).
// Overridden instances replace the occurrence their RECURRENCE-ID points at.
func expandICSEvents(events []icsEvent, timeMin, timeMax time.Time, logger *slog.Logger) []entity.CalendarEvent {
	overrides := make(map[string][]icsEvent)
	for _, event := range events {
		if event.recurrence != nil {
			overrides[event.uid] = append(overrides[event.uid], event)
		}
	}

	var out []entity.CalendarEvent
	for _, event := range events {
		switch {
		case event.recurrence != nil:
			if inWindow(event.start, timeMin, timeMax) {
				out = append(out, event.occurrence(occurrenceID(event.uid, *event.recurrence), event.start, event.end))
			}

		case event.rawRRule == "":
			if inWindow(event.start, timeMin, timeMax) {
				out = append(out, event.occurrence(event.uid, event.start, event.end))
			}

		default:
			out = append(out, expandRecurring(event, overrides[event.uid], timeMin, timeMax, logger)...)
		}
	}

	return out
}

func expandRecurring(event icsEvent, overrides []icsEvent, timeMin, timeMax time.Time, logger *slog.Logger) []entity.CalendarEvent {
	rule, err := rrule.StrToRRule(event.rawRRule)
	if err != nil {
		logger.Warn("Skipping event with invalid RRULE",
			slog.String("uid", event.uid),
			slog.String("rrule", event.rawRRule),
			slog.Any("error", err),
		)

		return nil
	}
	rule.DTStart(event.start)

	var set rrule.Set
	set.RRule(rule)
	for _, exDate := range event.exDates {
		set.ExDate(exDate)
	}

	loc := event.start.Location()
	starts := set.Between(timeMin.In(loc), timeMax.In(loc), true)
	if len(starts) > maxOccurrencesPerEvent {
		logger.Warn("Truncating recurring event occurrences",
			slog.String("uid", event.uid),
			slog.Int("occurrences", len(starts)),
		)
		starts = starts[:maxOccurrencesPerEvent]
	}

	duration := event.end.Sub(event.start)
	out := make([]entity.CalendarEvent, 0, len(starts))
	for _, start := range starts {
		if !start.Before(timeMax) || isOverridden(overrides, start) {
			continue
		}
		out = append(out, event.occurrence(occurrenceID(event.uid, start), start, start.Add(duration)))
	}

	return out
}

func isOverridden(overrides []icsEvent, start time.Time) bool {
	for _, override := range overrides {
		if override.recurrence.Equal(start) {
			return true
		}
	}

	return false
}

func (e icsEvent) occurrence(id string, start, end time.Time) entity.CalendarEvent {
	return entity.CalendarEvent{
		ID:             id,
		Title:          e.title,
		Description:    e.description,
		Start:          start.UTC(),
		End:            end.UTC(),
		Attendees:      e.attendees,
		OrganizerEmail: e.organizer,
	}
}

// occurrenceID is stable across fetches so re-imports of a recurring lesson stay idempotent.
func occurrenceID(uid string, start time.Time) string {
	return uid + "_" + start.UTC().Format(icsOccurrenceLayout)
}

func stripMailto(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len(mailtoPrefix) && strings.EqualFold(value[:len(mailtoPrefix)], mailtoPrefix) {
		value = value[len(mailtoPrefix):]
	}

	return value
}

// parseICSTime handles the UTC, floating and date-only forms used by EXDATE and RECURRENCE-ID.
func parseICSTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(value, "Z"):
		return time.Parse(icsOccurrenceLayout, value)
	case strings.Contains(value, "T"):
		return time.ParseInLocation("20060102T150405", value, loc)
	default:
		return time.ParseInLocation("20060102", value, loc)
	}
}
