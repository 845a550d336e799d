package http

import (
	"net/http"

	"golang.org/x/time/rate"
)

type rateTransport struct {
	limiter   *rate.Limiter
	transport http.RoundTripper
}

func (t *rateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) HttpOpts {
	if rps <= 0 {
		return func(*httpConfig) {}
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &rateTransport{
			limiter:   limiter,
			transport: rt,
		}
	})
}
