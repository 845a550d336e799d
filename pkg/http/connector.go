package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	// maxResponseBytes caps how much of a response body is read into memory.
	maxResponseBytes = 8 << 20
	// maxErrorMessage caps the upstream body kept in HTTPError.Message.
	maxErrorMessage = 512
)

// Connector sends JSON or raw requests to one upstream service
type Connector struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type ConnectorConfig struct {
	BaseURL string
	Logger  *zap.Logger
}

func NewConnector(config *ConnectorConfig, options ...HttpOpts) *Connector {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		baseURL:    config.BaseURL,
		httpClient: newClient(options...),
		logger:     logger,
	}
}

// BaseURL returns the base URL requests are resolved against.
func (c *Connector) BaseURL() string {
	return c.baseURL
}

type RequestOpt func(*requestConfig)

type requestConfig struct {
	headers     http.Header
	query       url.Values
	overrideURL string
}

func WithHeader(key, value string) RequestOpt {
	return func(c *requestConfig) {
		c.headers.Set(key, value)
	}
}

func WithQueryParam(key, value string) RequestOpt {
	return func(c *requestConfig) {
		c.query.Set(key, value)
	}
}

// WithURL sends the request to an absolute URL instead of baseURL+endpoint.
func WithURL(url string) RequestOpt {
	return func(c *requestConfig) {
		c.overrideURL = url
	}
}

// DoRequest sends reqBody as JSON and decodes a JSON response into respBody.
// Either may be nil.
func (c *Connector) DoRequest(ctx context.Context, method, endpoint string, reqBody, respBody any, opts ...RequestOpt) error {
	if reqBody == nil {
		return c.do(ctx, method, endpoint, nil, "", respBody, opts...)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	ctx = context.WithValue(ctx, payloadContextKey{}, payload)
	return c.do(ctx, method, endpoint, bytes.NewReader(payload), "application/json", respBody, opts...)
}

// DoRawRequest sends body as is with the given content type.
// Payload is not attached to the logging context, only its size.
func (c *Connector) DoRawRequest(ctx context.Context, method, endpoint string, body []byte, contentType string, respBody any, opts ...RequestOpt) error {
	ctx = context.WithValue(ctx, bodySizeContextKey{}, len(body))
	return c.do(ctx, method, endpoint, bytes.NewReader(body), contentType, respBody, opts...)
}

func (c *Connector) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, respBody any, opts ...RequestOpt) error {
	req, err := c.newRequest(ctx, method, endpoint, body, contentType, opts)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, data)
	}
	if respBody == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Connector) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string, opts []RequestOpt) (*http.Request, error) {
	cfg := requestConfig{headers: http.Header{}, query: url.Values{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	target := cfg.overrideURL
	if target == "" {
		target = c.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range cfg.headers {
		req.Header[key] = values
	}

	if len(cfg.query) > 0 {
		q := req.URL.Query()
		for key := range cfg.query {
			q.Set(key, cfg.query.Get(key))
		}
		req.URL.RawQuery = q.Encode()
	}

	return req, nil
}

// HTTPError represents a non-2xx upstream response
type HTTPError struct {
	StatusCode int
	Message    string
}

func newHTTPError(status int, body []byte) *HTTPError {
	msg := string(body)
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return &HTTPError{StatusCode: status, Message: msg}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the upstream is likely to succeed on a later attempt.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable reports whether err is a transport failure or a retryable HTTP status.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// NetworkError wraps a failure to get any response (dial, TLS, timeout, rate limiter wait)
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
