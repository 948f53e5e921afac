package ratelimiter

import (
	"context"
	"math"
	"sync"
	"time"
)

// bucketState holds token bucket state for a single key.
// Tokens are tracked fractionally so refill accrues continuously between calls.
type bucketState struct {
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time // Used by cleanup to identify stale buckets
}

// MemoryStore implements Store using process-local in-memory state.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState

	now             func() time.Time
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the cleanup interval for removing stale buckets.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithClock overrides the wall-clock source. Intended for tests that need
// deterministic refill behavior without sleeping.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store with optional cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]*bucketState),
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

// ConsumeTokens refills the bucket proportionally to elapsed time, then
// consumes n tokens when enough are available. Nothing is consumed on
// shortfall, so the token count never goes negative.
func (ms *MemoryStore) ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (bool, int, time.Duration, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	b, exists := ms.buckets[key]
	if !exists {
		initial := 0.0
		if cfg.FireImmediately {
			initial = float64(cfg.Capacity)
		}
		b = &bucketState{
			tokens:     initial,
			lastRefill: now,
			lastAccess: now,
		}
		ms.buckets[key] = b
	}

	// Continuous refill: elapsed time earns a proportional share of
	// RefillRate per RefillInterval, capped at capacity.
	// Multiply before dividing to keep exact results for whole intervals.
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		earned := elapsed.Seconds() * float64(cfg.RefillRate) / cfg.RefillInterval.Seconds()
		b.tokens = math.Min(b.tokens+earned, float64(cfg.Capacity))
		b.lastRefill = now
	}
	b.lastAccess = now

	// Tiny epsilon guards against float drift denying an exactly-refilled token.
	if b.tokens+1e-9 >= float64(n) {
		b.tokens = math.Max(b.tokens-float64(n), 0)
		return true, int(b.tokens + 1e-9), 0, nil
	}

	// Report how long until the shortfall accrues, rounded up so a caller
	// waiting exactly this long is guaranteed to succeed.
	shortfall := float64(n) - b.tokens
	perToken := cfg.RefillInterval.Seconds() / float64(cfg.RefillRate)
	wait := time.Duration(math.Ceil(shortfall*perToken*1000)) * time.Millisecond

	return false, int(b.tokens), wait, nil
}

// Reset clears the bucket state for the given key.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

// cleanup runs periodically to remove stale buckets.
func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale()
		case <-ms.stopCleanup:
			return
		}
	}
}

// removeStale drops buckets that haven't been accessed recently to prevent
// unbounded growth when channel keys churn.
func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	staleThreshold := 1 * time.Hour

	for key, b := range ms.buckets {
		if now.Sub(b.lastAccess) > staleThreshold {
			delete(ms.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	select {
	case <-ms.stopCleanup:
	default:
		close(ms.stopCleanup)
	}
}
