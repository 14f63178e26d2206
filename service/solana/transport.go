package solana

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedTransport paces outbound RPC requests so a shared public endpoint
// does not start answering 429.
type rateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

// RoundTrip waits for the limiter before delegating to the base transport.
func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient builds the HTTP client shared by every RPC call toward one
// node. A requestsPerSecond of zero disables pacing.
func NewHTTPClient(timeout time.Duration, requestsPerSecond float64) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		transport = &rateLimitedTransport{
			limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
			base:    transport,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
