// Package fetch provides the shared rate-limited, retrying HTTP fetcher used
// by every source adapter.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"newsflow/internal/logger"
)

// Options configures a Client. Zero values fall back to the defaults below.
type Options struct {
	Timeout     time.Duration // Per-attempt HTTP timeout
	MaxRetries  int           // Additional attempts after the first
	RetryJitter float64       // Randomization factor applied to each backoff
	BaseBackoff time.Duration // First backoff interval
	RateLimit   float64       // Per-host requests/sec, 0 disables the bucket
	UserAgent   string
}

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 2
	defaultRetryJitter = 0.5
	defaultBaseBackoff = 500 * time.Millisecond
	defaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	maxBodyBytes = 10 << 20
)

// Client fetches URLs with retry and optional per-host rate limiting.
// Failures never propagate to callers: the text variant returns "" and the
// JSON variant returns false, after logging.
type Client struct {
	http *http.Client
	opts Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a fetcher with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryJitter <= 0 {
		opts.RetryJitter = defaultRetryJitter
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// FetchText returns the response body as text, or "" on any failure.
func (c *Client) FetchText(ctx context.Context, rawURL string) string {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		logger.Debug("fetch failed", "url", rawURL, "error", err.Error())
		return ""
	}
	return string(body)
}

// FetchJSON decodes the response body into the given value and reports
// whether it succeeded. On any fetch or decode failure the value is left
// untouched and false is returned.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, into any) bool {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		logger.Debug("fetch failed", "url", rawURL, "error", err.Error())
		return false
	}
	if err := json.Unmarshal(body, into); err != nil {
		logger.Debug("json decode failed", "url", rawURL, "error", err.Error())
		return false
	}
	return true
}

// permanentError marks failures that must not be retried: malformed URLs and
// well-formed 4xx responses other than 429.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// get runs the attempt loop. Transient failures (network error, timeout,
// 5xx, 429) are retried up to MaxRetries times with randomized exponential
// backoff; permanent failures return immediately.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.waitHost(ctx, rawURL); err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.BaseBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = c.opts.RetryJitter
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(bo.NextBackOff()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.attempt(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if perm, ok := err.(permanentError); ok {
			return nil, perm.err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

// attempt performs one HTTP round trip.
func (c *Client) attempt(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, permanentError{fmt.Errorf("invalid URL %s: %w", rawURL, err)}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	default:
		return nil, permanentError{fmt.Errorf("status %d", resp.StatusCode)}
	}
}

// waitHost blocks on the per-host token bucket when rate limiting is
// enabled.
func (c *Client) waitHost(ctx context.Context, rawURL string) error {
	if c.opts.RateLimit <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	c.mu.Lock()
	limiter, ok := c.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.opts.RateLimit), 1)
		c.limiters[u.Host] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}
