package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetryErrWithContext_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 3, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryErrWithContext_ReturnsLastError(t *testing.T) {
	wantErr := errors.New("still broken")
	calls := 0
	err := RetryErrWithContext(context.Background(), 2, func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error returned, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryErrWithContext_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryErrWithContext(ctx, 5, func(ctx context.Context) error {
		calls++
		cancel()
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries after cancellation, got %d calls", calls)
	}
}

func TestRetryErrWithContext_ZeroTriesDefaultsToOne(t *testing.T) {
	calls := 0
	_ = RetryErrWithContext(context.Background(), 0, func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}

func TestRetryWithContext_ReturnsResult(t *testing.T) {
	calls := 0
	got, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("expected ok, got %q", got)
	}
}

func TestRetry2WithContext_ReturnsBothResults(t *testing.T) {
	a, b, err := Retry2WithContext(context.Background(), 1, func(ctx context.Context) (int, string, error) {
		return 7, "seven", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != 7 || b != "seven" {
		t.Fatalf("expected (7, seven), got (%d, %q)", a, b)
	}
}
