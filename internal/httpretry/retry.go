// Package httpretry carries the retry policy shared by the HTTP API clients:
// exponential backoff on rate limits, server errors, and network timeouts,
// honoring Retry-After when the server provides one.
package httpretry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Policy drives retries for idempotent HTTP operations.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleeper     func(time.Duration)
}

// NewPolicy returns a policy with the default attempt count and backoff.
func NewPolicy() *Policy {
	return &Policy{
		MaxAttempts: defaultRetryAttempts,
		BaseDelay:   defaultRetryBaseDelay,
		MaxDelay:    defaultRetryMaxDelay,
	}
}

// HTTPStatusError is a non-2xx response captured for retry classification.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// StatusError builds an HTTPStatusError from a response, parsing the
// Retry-After header when present.
func StatusError(statusCode int, body []byte, retryAfterHeader string) error {
	retryAfter, _ := parseRetryAfter(retryAfterHeader)
	return &HTTPStatusError{
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: retryAfter,
	}
}

// Do runs op until it succeeds, retries are exhausted, or the failure is not
// retryable. The final error is returned annotated with the attempt count.
func (p *Policy) Do(ctx context.Context, name string, op func() error) error {
	attempts := p.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		delay, retry := p.retryDelay(ctx, lastErr, attempt, attempts)
		if !retry {
			return lastErr
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}

func (p *Policy) attempts() int {
	if p == nil || p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p *Policy) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return p.capDelay(statusErr.RetryAfter), true
			}
			return p.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return p.backoffDelay(attempt), true
	}

	return 0, false
}

// backoffDelay doubles per attempt: base, base*2, base*4, capped at MaxDelay.
func (p *Policy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > p.maxDelay()/2 {
			return p.maxDelay()
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p *Policy) maxDelay() time.Duration {
	if p == nil || p.MaxDelay <= 0 {
		return defaultRetryMaxDelay
	}
	return p.MaxDelay
}

func (p *Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p *Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
