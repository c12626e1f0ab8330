// Package httpds fetches generator inputs (template dumps, tier lists, the
// client extract) over HTTP with retry and backoff.
//
// Only GET is supported: remote locations are read-only inputs. Generated
// artifacts are always written to the local filesystem.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// Config configures the fetch client. Zero values get defaults:
// Timeout 30s, InitialBackoff 200ms, MaxBackoff 5s. MaxRetries 0 means a
// single attempt.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool

	// Headers are sent with every request, e.g. an Authorization token for
	// an artifact store.
	Headers http.Header

	// Transport overrides the default *http.Transport.
	Transport http.RoundTripper
}

// Client issues GET requests with retry on transient failures.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// sleep is injectable to make tests fast and deterministic.
	sleep func(time.Duration)
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		sleep:          time.Sleep,
	}
}

// Get fetches url. Network errors, 429, and 5xx are retried with exponential
// backoff; any other status is returned as is. The caller must close the
// response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case !isRetryableStatus(resp.StatusCode):
			return resp, nil
		default:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: retryable status %d from %s", resp.StatusCode, url)
		}

		if attempt+1 >= attempts {
			break
		}
		if err := sleepWithContext(ctx, c.sleep, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableStatus reports whether code is transient: 429 or any 5xx.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		return min(initial, max)
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// sleepWithContext waits d but returns early with ctx.Err() on cancellation.
func sleepWithContext(ctx context.Context, sleep func(time.Duration), d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		sleep(0)
		return nil
	}
}
