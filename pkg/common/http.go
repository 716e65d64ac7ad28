package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

//go:embed VERSION
var version string

// UserAgent is sent with every upstream request.
func UserAgent() string {
	return "BESSLeague/" + strings.TrimSpace(version)
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
	limiter   *rate.Limiter
}

// RoundTrip implements the http.RoundTripper interface. It waits on the
// limiter, if any, and sets the User-Agent header.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	// Clone the request to avoid modifying the original request's headers
	// which might be shared or reused
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// HTTPClient returns a default http client with a default user-agent set
func HTTPClient(timeout time.Duration) *http.Client {
	return RateLimitedHTTPClient(timeout, nil)
}

// RateLimitedHTTPClient returns an http client that waits on limiter before
// every request. A nil limiter disables rate limiting.
func RateLimitedHTTPClient(timeout time.Duration, limiter *rate.Limiter) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			transport: http.DefaultTransport,
			userAgent: UserAgent(),
			limiter:   limiter,
		},
		Timeout: timeout,
	}
}

// Every builds a limiter allowing one request per interval. A zero or
// negative interval returns nil, meaning unlimited.
func Every(interval time.Duration, burst int) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}
