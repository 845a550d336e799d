package http

import "net/http"

type authTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())
	if t.value != "" {
		reqCopy.Header.Set(t.header, t.value)
	}
	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sends token as a Bearer credential.
func WithAuthToken(token string) HttpOpts {
	value := ""
	if token != "" {
		value = "Bearer " + token
	}
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			header:    "Authorization",
			value:     value,
			transport: rt,
		}
	})
}

// WithAPIKey sends key in the given header, e.g. x-goog-api-key.
func WithAPIKey(header, key string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			header:    header,
			value:     key,
			transport: rt,
		}
	})
}
