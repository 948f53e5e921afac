package ratelimiter

import (
	"context"
	"fmt"
)

// Bucket implements a token bucket rate limiter over a Store backend.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket creates a new token bucket rate limiter.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Bucket{
		store:  store,
		config: config,
	}, nil
}

// TryConsume attempts to consume a single token for the given key.
func (tb *Bucket) TryConsume(ctx context.Context, key string) (*Result, error) {
	return tb.TryConsumeN(ctx, key, 1)
}

// TryConsumeN attempts to consume n tokens for the given key. It never
// blocks: on shortfall the returned Result reports the wait required for the
// missing tokens to accrue.
func (tb *Bucket) TryConsumeN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}

	allowed, remaining, retryAfter, err := tb.store.ConsumeTokens(ctx, key, n, tb.config)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:    allowed,
		Limit:      tb.config.Capacity,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Status returns the current state without consuming tokens.
func (tb *Bucket) Status(ctx context.Context, key string) (*Result, error) {
	// Zero tokens updates bucket state but doesn't actually consume.
	allowed, remaining, retryAfter, err := tb.store.ConsumeTokens(ctx, key, 0, tb.config)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:    allowed,
		Limit:      tb.config.Capacity,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Reset clears the bucket state for the given key.
func (tb *Bucket) Reset(ctx context.Context, key string) error {
	return tb.store.Reset(ctx, key)
}
