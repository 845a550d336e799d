package callback

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector delivers async upload outcomes to client supplied webhooks
type Connector struct {
	connector *pkghttp.Connector
	retry     pkgRetry.RetryConfig
	now       func() time.Time
}

func NewConnector(cfg config.CallbackConnectorConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		retry:     cfg.Retry,
		now:       time.Now,
	}
}

// Validate rejects anything but an absolute http(s) URL.
func (c *Connector) Validate(callbackURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: callback_url must be an absolute http(s) URL", entity.ErrInvalidParameter)
	}
	return nil
}

func (c *Connector) SendIngestCompleted(ctx context.Context, callbackURL, requestID string, data *entity.CallbackIngestData) {
	c.deliver(ctx, callbackURL, requestID, entity.CallbackEventTypeIngestCompleted, data)
}

func (c *Connector) SendError(ctx context.Context, callbackURL, requestID, message string, details map[string]any) {
	c.deliver(ctx, callbackURL, requestID, entity.CallbackEventTypeError, &entity.CallbackErrorData{
		Error: entity.CallbackErrorDetails{Message: message, Details: details},
	})
}

func (c *Connector) deliver(ctx context.Context, callbackURL, requestID string, event entity.CallbackEventType, data any) {
	err := c.Send(ctx, callbackURL, requestID, &entity.CallbackEvent{Event: event, Data: data})
	if err != nil {
		ctxzap.Error(ctx, "callback delivery failed", zap.String("event_type", string(event)), zap.Error(err))
	}
}

// Send posts event to callbackURL, retrying transport failures and 429/5xx answers.
func (c *Connector) Send(ctx context.Context, callbackURL, requestID string, event *entity.CallbackEvent) error {
	if err := c.Validate(callbackURL); err != nil {
		return err
	}
	if event.Timestamp == "" {
		event.Timestamp = c.now().UTC().Format(time.RFC3339)
	}

	fields := []zap.Field{
		zap.String("event_type", string(event.Event)),
		zap.String("callback_url", redactURL(callbackURL)),
	}
	ctxzap.Debug(ctx, "sending callback", fields...)

	attempts := 0
	err := pkgRetry.Do(ctx, c.retry, func(ctx context.Context) error {
		attempts++
		return c.connector.DoRequest(ctx, http.MethodPost, "", event, nil,
			pkghttp.WithURL(callbackURL),
			pkghttp.WithHeader("X-Request-ID", requestID),
			pkghttp.WithHeader("X-Callback-Event", string(event.Event)),
		)
	}, retry.RetryIf(pkghttp.IsRetryable))
	if err != nil {
		return fmt.Errorf("send %s callback after %d attempt(s): %w", event.Event, attempts, err)
	}

	ctxzap.Info(ctx, "callback delivered", append(fields, zap.Int("attempts", attempts))...)
	return nil
}

// redactURL drops credentials and query strings, which often carry tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
