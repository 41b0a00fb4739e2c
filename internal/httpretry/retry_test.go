package httpretry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func testPolicy() (*Policy, *[]time.Duration) {
	var sleeps []time.Duration
	policy := NewPolicy()
	policy.BaseDelay = 10 * time.Millisecond
	policy.MaxDelay = 80 * time.Millisecond
	policy.Sleeper = func(d time.Duration) { sleeps = append(sleeps, d) }
	return policy, &sleeps
}

func TestDoRetriesServerErrors(t *testing.T) {
	policy, sleeps := testPolicy()

	calls := 0
	err := policy.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return StatusError(http.StatusInternalServerError, []byte("boom"), "")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(*sleeps) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(*sleeps))
	}
	if (*sleeps)[0] != 10*time.Millisecond || (*sleeps)[1] != 20*time.Millisecond {
		t.Fatalf("expected doubling backoff, got %v", *sleeps)
	}
}

func TestDoHonorsRetryAfter(t *testing.T) {
	policy, sleeps := testPolicy()

	calls := 0
	err := policy.Do(context.Background(), "op", func() error {
		calls++
		if calls == 1 {
			return StatusError(http.StatusTooManyRequests, nil, "1")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	// Retry-After exceeds MaxDelay and must be capped.
	if len(*sleeps) != 1 || (*sleeps)[0] != 80*time.Millisecond {
		t.Fatalf("expected capped retry-after sleep, got %v", *sleeps)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	policy, _ := testPolicy()

	calls := 0
	err := policy.Do(context.Background(), "op", func() error {
		calls++
		return StatusError(http.StatusUnauthorized, []byte("bad key"), "")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status error preserved, got %v", err)
	}
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	policy, _ := testPolicy()
	policy.MaxAttempts = 3

	calls := 0
	err := policy.Do(context.Background(), "op", func() error {
		calls++
		return StatusError(http.StatusServiceUnavailable, nil, "")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	policy, _ := testPolicy()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy.Do(ctx, "op", func() error {
		calls++
		cancel()
		return StatusError(http.StatusInternalServerError, nil, "")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected no retries after cancel, got %d calls", calls)
	}
}

func TestParseRetryAfterFormats(t *testing.T) {
	if delay, ok := parseRetryAfter("30"); !ok || delay != 30*time.Second {
		t.Fatalf("seconds form: got %v ok=%v", delay, ok)
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("empty value must not parse")
	}
	if _, ok := parseRetryAfter("-5"); ok {
		t.Fatal("negative value must not parse")
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if delay, ok := parseRetryAfter(future); !ok || delay <= 0 {
		t.Fatalf("http date form: got %v ok=%v", delay, ok)
	}
}
