package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"lessonsync/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Attribute keys set on every published message.
const (
	AttributeEventType = "event_type"
	AttributeRequestID = "request_id"
)

// message is a transport-neutral outgoing event.
type message struct {
	ID         string
	Topic      string
	Data       []byte
	Attributes map[string]string
}

// sender delivers encoded messages to a broker.
type sender interface {
	Send(ctx context.Context, msg *message) error
	Close() error
}

// eventPublisher implements service.EventPublisher on top of a sender.
type eventPublisher struct {
	sender sender
	logger *slog.Logger
}

func newEventPublisher(s sender, logger *slog.Logger) service.EventPublisher {
	return &eventPublisher{sender: s, logger: logger}
}

// PublishProfileMerged publishes a profile.merged event.
func (p *eventPublisher) PublishProfileMerged(ctx context.Context, event *service.ProfileMergedEvent) error {
	return p.publish(ctx, service.TopicProfileMerged, event.RequestID, event, map[string]string{
		"profile_id": event.ProfileID,
		"shadow_id":  event.ShadowID,
	})
}

// PublishImportCompleted publishes an import.completed event.
func (p *eventPublisher) PublishImportCompleted(ctx context.Context, event *service.ImportCompletedEvent) error {
	return p.publish(ctx, service.TopicImportCompleted, event.RequestID, event, map[string]string{
		"run_id":       event.RunID,
		"status":       event.Status,
		"failed_count": strconv.Itoa(event.FailedEvents + event.FailedChunks),
	})
}

// Close releases the underlying sender.
func (p *eventPublisher) Close() error {
	return p.sender.Close()
}

func (p *eventPublisher) publish(ctx context.Context, topic, requestID string, payload any, attributes map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.WithStack(err)
	}

	attributes[AttributeEventType] = topic
	if requestID != "" {
		attributes[AttributeRequestID] = requestID
	}

	msg := &message{
		ID:         uuid.NewString(),
		Topic:      topic,
		Data:       data,
		Attributes: attributes,
	}

	if err := p.sender.Send(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s", topic)
	}

	p.logger.Debug("Event published",
		slog.String("topic", topic),
		slog.String("message_id", msg.ID),
	)

	return nil
}
