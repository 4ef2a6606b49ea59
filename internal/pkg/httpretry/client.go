// Package httpretry wraps an HTTP client with bounded retries, exponential
// backoff and full jitter. It is used only by background jobs; request-path
// callers send once and surface the failure.
package httpretry

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/newsletter/internal/pkg/logger"
)

// HTTPDoer executes HTTP requests. *http.Client and *Client satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options tunes a Client. Zero values take the defaults noted per field.
type Options struct {
	MaxRetries int           // retries after the first attempt, default 3
	BaseDelay  time.Duration // default 1s
	MaxDelay   time.Duration // default 30s
	Logger     *logger.Logger
}

// Client retries requests that fail with a transport error or a retryable
// status (429, 500, 502, 503, 504).
type Client struct {
	next HTTPDoer
	opts Options
}

// New wraps next. A nil next uses an http.Client with a 30s timeout.
func New(next HTTPDoer, opts Options) *Client {
	if next == nil {
		next = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Client{next: next, opts: opts}
}

// Do sends req, retrying as described on Client. Requests with a body must
// set GetBody (http.NewRequest does for in-memory readers). The last
// retryable response is returned as-is so the caller can read its body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: reset request body: %w", err)
				}
				req.Body = body
			}

			delay := c.backoff(attempt)
			c.opts.Logger.Warn("retrying request",
				"attempt", attempt, "max_retries", c.opts.MaxRetries,
				"host", req.URL.Host, "path", req.URL.Path, "delay", delay.String(), "error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, lastErr
			}
		}

		resp, err := c.next.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if !Retryable(resp.StatusCode) || attempt == c.opts.MaxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: retryable status %d", resp.StatusCode)
	}
	return nil, lastErr
}

// backoff returns a random delay in [100ms, min(MaxDelay, BaseDelay*2^(attempt-1))].
func (c *Client) backoff(attempt int) time.Duration {
	ceiling := c.opts.BaseDelay << (attempt - 1)
	if ceiling > c.opts.MaxDelay || ceiling <= 0 {
		ceiling = c.opts.MaxDelay
	}
	d := time.Duration(rand.Int63n(int64(ceiling) + 1))
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

// Retryable reports whether a response status is worth retrying.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
