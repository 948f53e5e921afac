package eventbus

import (
	"log/slog"
	"time"
)

// Option configures a Bus.
type Option func(*Bus)

// WithPollInterval sets how often the polling loop fetches due events.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithBatchSize caps how many due events one poll cycle fetches.
func WithBatchSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithMaxAttempts overrides the retry budget per event.
func WithMaxAttempts(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// WithBackoffBase overrides the base backoff delay. The delay for attempt n
// is base * 2^(n-1).
func WithBackoffBase(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.backoffBase = d
		}
	}
}

// WithBusLogger sets the logger for the Bus.
func WithBusLogger(log *slog.Logger) Option {
	return func(b *Bus) {
		if log != nil {
			b.logger = log
		}
	}
}

// WithClock overrides the wall-clock source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// PublishOption configures a published event.
type PublishOption func(*publishOptions)

type publishOptions struct {
	priority     Priority
	publisher    string
	targetUsers  []string
	metadata     map[string]any
	scheduledFor *time.Time
}

// WithPriority sets the event priority. Defaults to medium.
func WithPriority(p Priority) PublishOption {
	return func(o *publishOptions) {
		o.priority = p
	}
}

// WithPublisher records the logical producer of the event.
func WithPublisher(name string) PublishOption {
	return func(o *publishOptions) {
		o.publisher = name
	}
}

// WithTargetUsers sets the ordered recipient list.
func WithTargetUsers(userIDs ...string) PublishOption {
	return func(o *publishOptions) {
		o.targetUsers = userIDs
	}
}

// WithMetadata attaches caller metadata to the event.
func WithMetadata(md map[string]any) PublishOption {
	return func(o *publishOptions) {
		o.metadata = md
	}
}

// WithScheduledFor delays processing until the given time.
func WithScheduledFor(t time.Time) PublishOption {
	return func(o *publishOptions) {
		o.scheduledFor = &t
	}
}
