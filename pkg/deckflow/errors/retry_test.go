package errors

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastRetry keeps retry tests quick.
var fastRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
	BackoffFactor:  2.0,
}

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := WithRetry(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value != "ok" {
		t.Errorf("Value = %q, want ok", result.Value)
	}
	if result.Attempts != 1 || calls != 1 {
		t.Errorf("Attempts = %d, calls = %d, want 1 and 1", result.Attempts, calls)
	}
}

func TestWithRetry_TransientRetriedToMaxAttempts(t *testing.T) {
	calls := 0
	result := WithRetry(context.Background(), fastRetry, func(context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 503, Message: "unavailable"}
	})

	if calls != fastRetry.MaxAttempts {
		t.Errorf("calls = %d, want %d", calls, fastRetry.MaxAttempts)
	}
	if result.Attempts != fastRetry.MaxAttempts {
		t.Errorf("Attempts = %d, want %d", result.Attempts, fastRetry.MaxAttempts)
	}

	var cerr *CategorizedError
	if !errors.As(result.Err, &cerr) {
		t.Fatalf("Err = %T, want *CategorizedError", result.Err)
	}
	if cerr.Op != "max retries exceeded" {
		t.Errorf("Op = %q, want max retries exceeded", cerr.Op)
	}
	if cerr.Category != CategoryTransient {
		t.Errorf("Category = %s, want transient", cerr.Category)
	}
}

func TestWithRetry_TransientEventuallySucceeds(t *testing.T) {
	calls := 0
	result := WithRetry(context.Background(), fastRetry, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &HTTPError{StatusCode: 429, Message: "rate limited"}
		}
		return "done", nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value != "done" || result.Attempts != 3 {
		t.Errorf("Value = %q, Attempts = %d, want done and 3", result.Value, result.Attempts)
	}
}

func TestWithRetry_PermanentReturnsImmediately(t *testing.T) {
	calls := 0
	result := WithRetry(context.Background(), fastRetry, func(context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 401, Message: "unauthorized"}
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	var cerr *CategorizedError
	if !errors.As(result.Err, &cerr) {
		t.Fatalf("Err = %T, want *CategorizedError", result.Err)
	}
	if cerr.Category != CategoryPermanent {
		t.Errorf("Category = %s, want permanent", cerr.Category)
	}
}

func TestWithRetry_MalformedReturnsImmediately(t *testing.T) {
	calls := 0
	result := WithRetry(context.Background(), fastRetry, func(context.Context) (int, error) {
		calls++
		return 0, &JSONParseError{Message: "unexpected token"}
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	var cerr *CategorizedError
	if !errors.As(result.Err, &cerr) {
		t.Fatalf("Err = %T, want *CategorizedError", result.Err)
	}
	if cerr.Category != CategoryMalformed {
		t.Errorf("Category = %s, want malformed", cerr.Category)
	}
}

func TestWithRetry_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	result := WithRetry(ctx, fastRetry, func(context.Context) (int, error) {
		calls++
		return 0, nil
	})

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	var cerr *CategorizedError
	if !errors.As(result.Err, &cerr) {
		t.Fatalf("Err = %T, want *CategorizedError", result.Err)
	}
	if cerr.Op != "context cancelled" {
		t.Errorf("Op = %q, want context cancelled", cerr.Op)
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Error("Err should wrap context.Canceled")
	}
}

func TestWithRetry_CancelledDuringBackoff(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Minute, // long enough that cancellation wins
		MaxBackoff:     time.Minute,
		BackoffFactor:  2.0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	result := WithRetry(ctx, cfg, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, &HTTPError{StatusCode: 503, Message: "unavailable"}
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	var cerr *CategorizedError
	if !errors.As(result.Err, &cerr) {
		t.Fatalf("Err = %T, want *CategorizedError", result.Err)
	}
	if cerr.Op != "context cancelled during backoff" {
		t.Errorf("Op = %q, want context cancelled during backoff", cerr.Op)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
}

func TestWithRetry_RetryableFuncOverride(t *testing.T) {
	cfg := fastRetry
	cfg.RetryableFunc = func(error) bool { return false }

	calls := 0
	result := WithRetry(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 503, Message: "unavailable"}
	})

	// The override marks everything non-retryable, even a transient error.
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if result.Err == nil {
		t.Fatal("expected error")
	}
}

func TestWithRetry_NoRetry(t *testing.T) {
	calls := 0
	result := WithRetry(context.Background(), NoRetry, func(context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 503, Message: "unavailable"}
	})

	if calls != 1 || result.Attempts != 1 {
		t.Errorf("calls = %d, Attempts = %d, want 1 and 1", calls, result.Attempts)
	}
}

func TestJittered(t *testing.T) {
	base := 100 * time.Millisecond

	if got := jittered(base, 0); got != base {
		t.Errorf("jittered with zero jitter = %v, want %v", got, base)
	}

	for i := 0; i < 20; i++ {
		got := jittered(base, 0.1)
		lo := time.Duration(float64(base) * 0.9)
		hi := time.Duration(float64(base) * 1.1)
		if got < lo || got > hi {
			t.Fatalf("jittered = %v, want within [%v, %v]", got, lo, hi)
		}
	}
}
