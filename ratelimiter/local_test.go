package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_TryConsume(t *testing.T) {
	rl := New(100, 10)

	// Should be able to proceed
	if !rl.TryConsume(10) {
		t.Error("should be able to proceed with valid request")
	}

	// Test running out of tokens
	smallTokenRL := New(10, 100)
	if !smallTokenRL.TryConsume(10) {
		t.Error("should be able to consume exactly available tokens")
	}
	if smallTokenRL.TryConsume(1) {
		t.Error("should not proceed when tokens exhausted")
	}

	// Test running out of requests
	smallReqRL := New(100, 1)
	if !smallReqRL.TryConsume(1) {
		t.Error("should be able to proceed with 1st request")
	}
	if smallReqRL.TryConsume(1) {
		t.Error("should not proceed when requests exhausted")
	}
}

func TestRateLimiter_TryConsumeIsAllOrNothing(t *testing.T) {
	rl := New(100, 1)

	if !rl.TryConsume(50) {
		t.Fatal("first call should pass")
	}
	// Request bucket is empty, so the tokens must not be taken either.
	if rl.TryConsume(50) {
		t.Fatal("second call should be rejected by the request bucket")
	}
	if wait := rl.tokens.TokensAt(time.Now()); wait < 49 {
		t.Errorf("rejected call leaked tokens, %v left", wait)
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := New(0, 0)

	for i := 0; i < 1000; i++ {
		if !rl.TryConsume(10_000) {
			t.Fatalf("unlimited limiter rejected call %d", i)
		}
	}
	if d := rl.TimeUntilAvailable(1 << 20); d != 0 {
		t.Errorf("expected no wait, got %v", d)
	}
}

func TestRateLimiter_TimeUntilAvailable(t *testing.T) {
	rl := New(60, 60) // 1 token per second

	if !rl.TryConsume(59) {
		t.Fatal("failed to drain bucket")
	}

	// We need 2 tokens, have 0 (one request slot used). Refill rate is 1/sec.
	wait := rl.TimeUntilAvailable(2)
	if wait < 900*time.Millisecond || wait > 2500*time.Millisecond {
		t.Errorf("expected wait around 1-2s, got %v", wait)
	}

	// Read-only: asking again gives about the same answer.
	again := rl.TimeUntilAvailable(2)
	if again > wait+100*time.Millisecond {
		t.Errorf("TimeUntilAvailable consumed capacity: %v then %v", wait, again)
	}
}

func TestRateLimiter_WaitAndConsume(t *testing.T) {
	rl := New(10, 100)

	if err := rl.WaitAndConsume(context.Background(), 5, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// More than the bucket can ever hold.
	err := rl.WaitAndConsume(context.Background(), 11, 0)
	if !errors.Is(err, ErrExceedsBurst) {
		t.Errorf("expected ErrExceedsBurst, got %v", err)
	}

	// Remaining 5 tokens, asking for 10 needs ~30s, more than maxWait.
	err = rl.WaitAndConsume(context.Background(), 10, 10*time.Millisecond)
	if err == nil {
		t.Error("expected max wait error")
	}
}

func TestRateLimiter_WaitAndConsumeCancelled(t *testing.T) {
	rl := New(60, 60)
	rl.TryConsume(60)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.WaitAndConsume(ctx, 30, 0); err == nil {
		t.Error("expected error from cancelled context")
	}
}
