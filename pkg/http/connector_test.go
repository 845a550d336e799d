package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDoRequestDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	c := NewConnector(&ConnectorConfig{BaseURL: srv.URL, Logger: zap.NewNop()},
		WithRequestTimeout(time.Second),
		WithAuthToken("tok"),
		WithRequestLogging(),
	)

	var out struct {
		Name string `json:"name"`
	}
	err := c.DoRequest(context.Background(), http.MethodPost, "/items", map[string]string{"a": "b"}, &out,
		WithQueryParam("page", "2"),
		WithHeader("X-Custom", "yes"),
	)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
}

func TestDoRequestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	c := NewConnector(&ConnectorConfig{BaseURL: srv.URL})
	err := c.DoRequest(context.Background(), http.MethodGet, "/", nil, nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, "slow down", httpErr.Message)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&NetworkError{Err: errors.New("refused")}))
	assert.True(t, IsRetryable(&HTTPError{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsRetryable(&HTTPError{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsRetryable(errors.New("decode response")))
}

func TestDoRawRequestWithOverrideURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/other", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("X-Goog-Api-Key"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewConnector(&ConnectorConfig{BaseURL: "http://unused.invalid"}, WithAPIKey("x-goog-api-key", "k"))
	err := c.DoRawRequest(context.Background(), http.MethodPut, "", []byte("%PDF"), "application/pdf", nil,
		WithURL(srv.URL+"/other"),
	)
	require.NoError(t, err)
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewConnector(&ConnectorConfig{BaseURL: srv.URL}, WithRateLimit(0.001, 1))
	require.NoError(t, c.DoRequest(context.Background(), http.MethodGet, "/", nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.DoRequest(ctx, http.MethodGet, "/", nil, nil)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestRedactHidesCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("x-goog-api-key", "secret")
	h.Set("Accept", "application/json")

	out := redact(h)
	assert.Equal(t, "***", out.Get("Authorization"))
	assert.Equal(t, "***", out.Get("X-Goog-Api-Key"))
	assert.Equal(t, "application/json", out.Get("Accept"))
	assert.Equal(t, "Bearer secret", h.Get("Authorization"))
}

func TestHTTPErrorTruncatesLongBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
	}))
	defer srv.Close()

	c := NewConnector(&ConnectorConfig{BaseURL: srv.URL})
	err := c.DoRequest(context.Background(), http.MethodGet, "/", nil, nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Len(t, httpErr.Message, maxErrorMessage+len("..."))
	assert.True(t, strings.HasSuffix(httpErr.Message, "..."))
}

func TestTransportDecoratorOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	var order []string
	mark := func(name string) HttpOpts {
		return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
			return roundTripFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return rt.RoundTrip(req)
			})
		})
	}

	c := NewConnector(&ConnectorConfig{BaseURL: srv.URL}, mark("inner"), mark("outer"))
	require.NoError(t, c.DoRequest(context.Background(), http.MethodGet, "/", nil, nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
