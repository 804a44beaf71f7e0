package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrExceedsBurst is returned when a single call needs more tokens than the
// limiter can ever hold.
var ErrExceedsBurst = errors.New("request exceeds rate limiter capacity")

// RateLimiter limits tokens and requests per minute with two token buckets.
type RateLimiter struct {
	tokens   *rate.Limiter
	requests *rate.Limiter

	// serialises the two-bucket reservation so TryConsume is all-or-nothing
	mu sync.Mutex
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing tokensPerMinute tokens and requestsPerMinute
// calls per minute. A non-positive value disables that dimension.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		tokens:   perMinute(tokensPerMinute),
		requests: perMinute(requestsPerMinute),
	}
}

func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60.0), n)
}

// TryConsume atomically checks capacity and consumes it if available.
func (rl *RateLimiter) TryConsume(numTokens int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	tr := rl.tokens.ReserveN(now, numTokens)
	if !tr.OK() {
		return false
	}
	if tr.DelayFrom(now) > 0 {
		tr.CancelAt(now)
		return false
	}

	rr := rl.requests.ReserveN(now, 1)
	if !rr.OK() || rr.DelayFrom(now) > 0 {
		rr.CancelAt(now)
		tr.CancelAt(now)
		return false
	}
	return true
}

// TimeUntilAvailable returns how long until the tokens and one request slot
// would be available. rate.InfDuration means never.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	return max(peekDelay(rl.tokens, now, tokens), peekDelay(rl.requests, now, 1))
}

func peekDelay(l *rate.Limiter, now time.Time, n int) time.Duration {
	r := l.ReserveN(now, n)
	if !r.OK() {
		return rate.InfDuration
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// WaitAndConsume waits until capacity is available (up to maxWait), then
// consumes it. If maxWait is 0, there is no limit on how long to wait.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	waitDuration := rl.TimeUntilAvailable(tokens)
	if waitDuration == rate.InfDuration {
		return fmt.Errorf("%w: %d tokens", ErrExceedsBurst, tokens)
	}

	if maxWait > 0 {
		if waitDuration > maxWait {
			return fmt.Errorf("rate limit wait time %v exceeds max wait %v", waitDuration, maxWait)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}

	if err := rl.tokens.WaitN(ctx, tokens); err != nil {
		return err
	}
	return rl.requests.Wait(ctx)
}
