package ratelimiter

import (
	"fmt"
	"time"
)

// Result contains the outcome of a consumption attempt.
type Result struct {
	Allowed    bool          // Whether the requested tokens were admitted
	Limit      int           // Maximum tokens (bucket capacity)
	Remaining  int           // Tokens remaining after the attempt
	RetryAfter time.Duration // How long to wait before the shortfall is refilled; zero when allowed
}

// Config defines the token bucket configuration.
//
// RefillRate tokens are added per RefillInterval, accrued continuously in
// proportion to elapsed wall-clock time. Intervals are expected to be whole
// units (second, minute, hour, day); sub-second precision is not required.
type Config struct {
	Capacity        int           // Maximum tokens the bucket can hold (burst limit)
	RefillRate      int           // Number of tokens added per refill interval
	RefillInterval  time.Duration // How often RefillRate tokens accrue
	FireImmediately bool          // When true the bucket starts full; otherwise it starts empty
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}
