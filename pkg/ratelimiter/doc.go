// Package ratelimiter implements a token bucket rate limiter used to pace
// outbound notification channels (email, push, SMS).
//
// The limiter never blocks: TryConsume either admits the requested tokens or
// reports how long the caller must wait before capacity becomes available.
// Callers decide whether to wait, queue, or drop.
//
// Bucket state lives behind the Store interface. MemoryStore is the default
// process-local backend; RedisStore shares bucket state across processes for
// multi-instance deployments.
//
// Usage:
//
//	store := ratelimiter.NewMemoryStore()
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//	    Capacity:       10,
//	    RefillRate:     10,
//	    RefillInterval: time.Minute,
//	})
//	res, err := bucket.TryConsume(ctx, "email")
//	if !res.Allowed {
//	    time.Sleep(res.RetryAfter)
//	}
package ratelimiter
