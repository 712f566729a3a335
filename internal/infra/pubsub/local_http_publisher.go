package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// PushMessage is the envelope Google Pub/Sub uses when pushing to an HTTP endpoint.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// localHTTPSender simulates Pub/Sub push delivery by POSTing envelopes to a local endpoint.
type localHTTPSender struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func newLocalHTTPSender(endpoint string, logger *slog.Logger) *localHTTPSender {
	return &localHTTPSender{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Send wraps msg in a push envelope and posts it.
func (s *localHTTPSender) Send(ctx context.Context, msg *message) error {
	var pushMsg PushMessage
	pushMsg.Subscription = "projects/local/subscriptions/" + msg.Topic
	pushMsg.Message.Data = base64.StdEncoding.EncodeToString(msg.Data)
	pushMsg.Message.Attributes = msg.Attributes
	pushMsg.Message.MessageID = msg.ID
	pushMsg.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(pushMsg)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID := msg.Attributes[AttributeRequestID]; requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("push endpoint returned non-success status: %d", resp.StatusCode)
	}

	s.logger.Info("[LocalPubSub] Event pushed",
		slog.String("endpoint", s.endpoint),
		slog.String("event_type", msg.Topic),
	)

	return nil
}

// Close is a no-op for the HTTP client.
func (s *localHTTPSender) Close() error {
	return nil
}
