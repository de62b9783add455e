package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jllopis/praxis/pkg/errors"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)

	err := cfg.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient %d", attempts)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	cfg := DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond)
	attempts := 0
	err := cfg.Do(context.Background(), func() error {
		attempts++
		return fmt.Errorf("always fails")
	})
	if err == nil || attempts != 2 {
		t.Fatalf("expected failure after 2 attempts, err=%v attempts=%d", err, attempts)
	}
}

func TestRetryStopsOnUnrecoverable(t *testing.T) {
	fatal := errors.New(errors.CodeInvalidInput, "bad request", nil)
	attempts := 0
	err := DefaultRetryConfig().WithInitialDelay(time.Millisecond).Do(context.Background(), func() error {
		attempts++
		return fatal
	})
	if err != fatal {
		t.Fatalf("expected the unrecoverable error back, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("unrecoverable errors must not be retried, got %d attempts", attempts)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultRetryConfig().WithInitialDelay(time.Second)
	err := cfg.Do(ctx, func() error { return fmt.Errorf("fail") })

	pe := errors.AsPraxisError(err)
	if pe == nil || pe.Code != errors.CodeTimeout {
		t.Fatalf("expected timeout-coded error on cancellation, got %v", err)
	}
}

func TestDoWithResult(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	attempts := 0
	got, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, fmt.Errorf("not yet")
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %d err=%v", got, err)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func() error {
		time.Sleep(time.Second)
		return nil
	})
	pe := errors.AsPraxisError(err)
	if pe == nil || pe.Code != errors.CodeTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !pe.Recoverable {
		t.Fatal("timeouts must be marked recoverable")
	}
}

func TestWithTimeoutResultPassesThrough(t *testing.T) {
	got, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: time.Second}, func() (string, error) {
		return "done", nil
	})
	if err != nil || got != "done" {
		t.Fatalf("expected done, got %q err=%v", got, err)
	}
}

func TestZeroDurationDisablesTimeout(t *testing.T) {
	called := false
	if err := WithTimeout(context.Background(), TimeoutConfig{}, func() error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("zero duration must call fn inline, err=%v", err)
	}
}
