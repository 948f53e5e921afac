package ratelimiter

import (
	"context"
	"time"
)

// Store defines the interface for token bucket state backends.
type Store interface {
	// ConsumeTokens attempts to consume the specified number of tokens for the
	// given key, refilling the bucket proportionally to elapsed time first.
	// When the bucket holds fewer than n tokens nothing is consumed and
	// retryAfter reports how long until the shortfall accrues.
	ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (allowed bool, remaining int, retryAfter time.Duration, err error)

	// Reset clears the bucket state for the given key.
	Reset(ctx context.Context, key string) error
}
