// Package handler contains the Pub/Sub push handlers of the sync worker.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"lessonsync/config"
	deliverycontext "lessonsync/internal/delivery/context"
	"lessonsync/internal/domain/constants"
	"lessonsync/internal/domain/entity"
	domainerrors "lessonsync/internal/domain/errors"
	"lessonsync/internal/domain/service"
	"lessonsync/internal/infra/pubsub"
	"lessonsync/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

const bearerPrefix = "Bearer "

// tokenValidator verifies a Google-signed OIDC token for audience.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushHandler consumes account.created push messages and runs the shadow merge for them.
type PushHandler struct {
	verifyPushAuth bool
	audience       string
	validateToken  tokenValidator
	accountUC      usecase.AccountUsecase
	logger         *slog.Logger
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	AccountUC usecase.AccountUsecase
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Only Google-delivered pushes carry an OIDC token; local development posts unsigned envelopes.
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	var audience string
	if params.Config.PubSub != nil {
		audience = params.Config.PubSub.PushAudience
	}

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		audience:       audience,
		validateToken:  idtoken.Validate,
		accountUC:      params.AccountUC,
		logger:         params.Logger,
	}
}

// HandlePush acknowledges with 200 everything that must not be redelivered, malformed
// messages included, and answers 503 only when the merge failed for a transient reason.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := h.verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PushMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Dropping unparsable push message", slog.Any("error", err))

		return c.NoContent(http.StatusOK)
	}

	if eventType := pushMsg.Message.Attributes[pubsub.AttributeEventType]; eventType != "" && eventType != service.TopicAccountCreated {
		h.logger.Debug("[Worker] Ignoring event",
			slog.String("event_type", eventType),
			slog.String("message_id", pushMsg.Message.MessageID),
		)

		return c.NoContent(http.StatusOK)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Dropping message with undecodable data",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusOK)
	}

	var event service.AccountCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Dropping unparsable account event",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusOK)
	}

	requestID := h.extractRequestID(ctx, &pushMsg, &event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	userID, email, err := parseAccountEvent(&event)
	if err != nil {
		// Malformed events never become valid; acknowledge so they are not redelivered.
		reqLogger.Error("[Worker] Dropping invalid account event",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Processing account.created",
		slog.String("user_id", userID.String()),
		slog.String("email", email),
	)

	result, err := h.accountUC.OnAccountCreated(ctx, email, entity.AccountMetadata{
		UserID:   userID,
		FullName: event.FullName,
	})
	if err != nil {
		retryable := domainerrors.IsTransient(err)
		reqLogger.Error("[Worker] Failed to merge account",
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
			slog.Bool("retryable", retryable),
		)
		if retryable {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Account processed",
		slog.String("user_id", userID.String()),
		slog.String("outcome", string(result.Outcome)),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID prefers the message attribute, then the payload, then the inbound header.
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *pubsub.PushMessage, event *service.AccountCreatedEvent) string {
	if requestID := pushMsg.Message.Attributes[pubsub.AttributeRequestID]; requestID != "" {
		return requestID
	}

	if event.RequestID != "" {
		return event.RequestID
	}

	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

func parseAccountEvent(event *service.AccountCreatedEvent) (uuid.UUID, string, error) {
	userID, err := uuid.Parse(event.UserID)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, "", errors.Errorf("invalid user_id %q", event.UserID)
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(event.Email))
	if err != nil {
		return uuid.Nil, "", errors.Wrapf(err, "invalid email %q", event.Email)
	}

	return userID, addr.Address, nil
}

// verifyPubSubToken verifies the OIDC token Google attaches to authenticated push requests.
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func (h *PushHandler) verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	token, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok || token == "" {
		return errors.New("invalid authorization header format")
	}

	audience := h.audience
	if audience == "" {
		scheme := "https"
		if req.TLS == nil {
			scheme = "http"
		}
		audience = fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)
	}

	payload, err := h.validateToken(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
