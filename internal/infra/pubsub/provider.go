package pubsub

import (
	"context"
	"log/slog"

	"lessonsync/config"
	"lessonsync/internal/domain/constants"
	"lessonsync/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// noopSender drops every message; used when Pub/Sub is disabled.
type noopSender struct {
	logger *slog.Logger
}

func (s *noopSender) Send(_ context.Context, msg *message) error {
	s.logger.Debug("[NoopPubSub] Event publishing disabled, skipping",
		slog.String("event_type", msg.Topic),
	)

	return nil
}

func (s *noopSender) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher creates an EventPublisher based on configuration
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" || cfg.Provider == constants.PubSubProviderNoop {
		logger.Info("PubSub not configured, using no-op publisher")

		return newEventPublisher(&noopSender{logger: logger}, logger), nil
	}

	var s sender

	switch cfg.Provider {
	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP publisher for Pub/Sub",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		s = newLocalHTTPSender(cfg.LocalEndpoint, logger)

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}

		googleSender, err := newGoogleSender(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}
		s = googleSender

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	publisher := newEventPublisher(s, logger)

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing EventPublisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// Module provides the Pub/Sub FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewEventPublisher),
)
