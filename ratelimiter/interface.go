package ratelimiter

import (
	"context"
	"time"
)

// Limiter guards outbound calls to an external image service.
// Implementations can be local (in-memory) or distributed.
type Limiter interface {
	// TryConsume takes one request slot and numTokens tokens if both are
	// available right now. Nothing is taken otherwise.
	TryConsume(numTokens int) bool

	// TimeUntilAvailable returns how long until the call could proceed (read-only).
	TimeUntilAvailable(tokens int) time.Duration

	// WaitAndConsume waits until capacity is available, then consumes it.
	// Returns error if context is cancelled or maxWait is exceeded.
	WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error
}
