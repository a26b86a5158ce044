// Package httpclient wraps outbound provider calls with a timeout, retries
// with exponential backoff, and a per-provider circuit breaker. Provider
// feeds are flaky enough in winter that a plain http.Get would turn every
// upstream hiccup into a failed corridor fetch.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen is returned when the breaker is rejecting calls; the
	// caller's stale-cache fallback applies the same as to any other failure.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
)

// Config bundles the retry policy for one provider client.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig mirrors the retry settings used for all provider feeds.
func DefaultConfig(timeout time.Duration) Config {
	return Config{
		Timeout:         timeout,
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Client issues GET requests with resilience around a shared http.Client.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	cfg     Config
	headers map[string]string
}

// New creates a Client named after its provider for breaker metrics and log
// lines. Headers are added to every request (providers require a User-Agent).
func New(name string, cfg Config, headers map[string]string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: cb,
		cfg:     cfg,
		headers: headers,
	}
}

// Get fetches url and returns the response body. Rate-limit and 5xx
// responses are retried with exponential backoff until MaxRetries is
// exhausted; an open breaker fails fast.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.cfg.MaxRetries {
			return nil, lastErr
		}

		delay := c.cfg.InitialInterval << attempt
		if c.cfg.MaxInterval > 0 && delay > c.cfg.MaxInterval {
			delay = c.cfg.MaxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
