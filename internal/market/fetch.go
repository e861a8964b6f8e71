package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRPS     = 2
	maxBodySize    = 1 << 20
)

// fetcher performs rate-limited, time-bounded JSON GET requests.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Option configures the HTTP side of a provider.
type Option func(*fetcher)

// WithTimeout bounds every upstream request, waiting for the limiter included.
func WithTimeout(d time.Duration) Option {
	return func(f *fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRateLimit caps the provider at rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(f *fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *fetcher) { f.client = c }
}

func newFetcher(opts ...Option) *fetcher {
	f := &fetcher{
		client:  &http.Client{},
		limiter: rate.NewLimiter(defaultRPS, 1),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *fetcher) getJSON(ctx context.Context, url string, header http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", internalerrors.ErrUpstreamFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", internalerrors.ErrUpstreamFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", internalerrors.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return fmt.Errorf("%w: unexpected status %d", internalerrors.ErrUpstreamFetch, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", internalerrors.ErrUpstreamFetch, err)
	}
	return nil
}
