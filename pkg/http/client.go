package http

import (
	"net"
	"net/http"
	"time"
)

// TransportFunc decorates a RoundTripper. Decorators registered later wrap
// earlier ones, so the last one sees the request first.
type TransportFunc func(http.RoundTripper) http.RoundTripper

type httpConfig struct {
	timeouts       Timeouts
	maxIdle        int
	maxIdlePerHost int
	decorators     []TransportFunc
}

func defaultHTTPConfig() httpConfig {
	return httpConfig{
		timeouts: Timeouts{
			Request:        30 * time.Second,
			Dial:           30 * time.Second,
			KeepAlive:      90 * time.Second,
			TLSHandshake:   10 * time.Second,
			ResponseHeader: 10 * time.Second,
			IdleConn:       90 * time.Second,
		},
		maxIdle:        100,
		maxIdlePerHost: 10,
	}
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var rt http.RoundTripper = cfg.baseTransport()
	for _, decorate := range cfg.decorators {
		rt = decorate(rt)
	}

	return &http.Client{
		Timeout:   cfg.timeouts.Request,
		Transport: rt,
	}
}

// baseTransport starts from http.DefaultTransport to keep proxy and HTTP/2 settings.
func (c *httpConfig) baseTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   c.timeouts.Dial,
		KeepAlive: c.timeouts.KeepAlive,
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = dialer.DialContext
	t.TLSHandshakeTimeout = c.timeouts.TLSHandshake
	t.ResponseHeaderTimeout = c.timeouts.ResponseHeader
	t.IdleConnTimeout = c.timeouts.IdleConn
	t.MaxIdleConns = c.maxIdle
	t.MaxIdleConnsPerHost = c.maxIdlePerHost
	return t
}
