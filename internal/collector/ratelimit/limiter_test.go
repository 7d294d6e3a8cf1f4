package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLimiter_Burst(t *testing.T) {
	l := NewLimiter("test", 1, 2)

	if !l.Allow() || !l.Allow() {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow() {
		t.Error("third request should be throttled")
	}
	if l.Name() != "test" {
		t.Errorf("expected name 'test', got %q", l.Name())
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter("free", 0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("request %d throttled with limiting disabled", i)
		}
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter("slow", 0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("expected error when context expires before a token is available")
	}
}

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, Multiplier: 2, MaxJitter: time.Millisecond}
}

func TestRetry_RetriesRateLimited(t *testing.T) {
	calls := 0
	var waits []time.Duration
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("status 429: %w", ErrTooManyRequests)
		}
		return nil
	}, func(_ error, d time.Duration) { waits = append(waits, d) })

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %d", len(waits))
	}
	if waits[0] < time.Millisecond || waits[0] >= 2*time.Millisecond {
		t.Errorf("first wait out of range: %v", waits[0])
	}
	if waits[1] < 2*time.Millisecond || waits[1] >= 3*time.Millisecond {
		t.Errorf("second wait out of range: %v", waits[1])
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return ErrTooManyRequests
	}, nil)

	if !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("expected ErrTooManyRequests, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 attempts, got %d", calls)
	}
}

func TestRetry_OtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("status 500")
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return boom
	}, nil)

	if !errors.Is(err, boom) {
		t.Errorf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}
