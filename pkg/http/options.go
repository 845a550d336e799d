package http

import "time"

type HttpOpts func(*httpConfig)

// Timeouts bounds the phases of an outgoing request. Zero fields keep the defaults.
type Timeouts struct {
	Request        time.Duration // whole exchange, body included
	Dial           time.Duration
	KeepAlive      time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration
	IdleConn       time.Duration
}

func WithTimeouts(t Timeouts) HttpOpts {
	return func(c *httpConfig) {
		setIfPositive(&c.timeouts.Request, t.Request)
		setIfPositive(&c.timeouts.Dial, t.Dial)
		setIfPositive(&c.timeouts.KeepAlive, t.KeepAlive)
		setIfPositive(&c.timeouts.TLSHandshake, t.TLSHandshake)
		setIfPositive(&c.timeouts.ResponseHeader, t.ResponseHeader)
		setIfPositive(&c.timeouts.IdleConn, t.IdleConn)
	}
}

func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return WithTimeouts(Timeouts{Request: timeout})
}

// WithIdlePool sizes the idle connection pool. Non-positive values keep the defaults.
func WithIdlePool(maxIdle, maxIdlePerHost int) HttpOpts {
	return func(c *httpConfig) {
		if maxIdle > 0 {
			c.maxIdle = maxIdle
		}
		if maxIdlePerHost > 0 {
			c.maxIdlePerHost = maxIdlePerHost
		}
	}
}

func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.decorators = append(c.decorators, transport)
	}
}

func setIfPositive(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
