package calendar

import (
	"context"
	"log/slog"

	"lessonsync/config"
	"lessonsync/internal/domain/constants"
	"lessonsync/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// ClientParams holds dependencies for the calendar client, injected by Fx
type ClientParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewCalendarClient creates a CalendarClient based on calendar.provider
func NewCalendarClient(params ClientParams) (service.CalendarClient, error) {
	cfg := params.Config.Calendar
	if cfg == nil {
		return nil, errors.New("calendar configuration is required")
	}
	logger := params.Logger.With(slog.String("component", "calendar"))

	switch cfg.Provider {
	case constants.CalendarProviderGoogle, "":
		if cfg.Google.CredentialsPath == "" {
			return nil, errors.New("credentials path is required for google calendar provider")
		}
		logger.Info("Using Google Calendar",
			slog.String("calendar_id", cfg.Google.CalendarID),
		)

		return NewGoogleClient(params.Ctx, cfg.Google.CalendarID, cfg.RequestTimeout, logger,
			option.WithCredentialsFile(cfg.Google.CredentialsPath),
		)

	case constants.CalendarProviderICS:
		if cfg.ICS.URL == "" {
			return nil, errors.New("url is required for ics calendar provider")
		}
		logger.Info("Using iCalendar feed")

		return NewICSClient(cfg.ICS.URL, cfg.RequestTimeout, logger), nil

	default:
		return nil, errors.Errorf("unknown calendar provider: %s", cfg.Provider)
	}
}

// Module provides the calendar FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewCalendarClient),
)
