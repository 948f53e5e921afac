package eventbus

import (
	"context"
	"time"
)

// Store defines the persistence boundary for events.
//
// The Bus is the only writer after creation; implementations don't need
// application-level locking as long as a single polling loop is active per
// logical event type (the accepted single-poller constraint).
type Store interface {
	// CreateEvent persists a new event.
	CreateEvent(ctx context.Context, event *Event) error

	// UpdateEvent replaces the stored event with the given state.
	// Returns ErrEventNotFound when the event does not exist.
	UpdateEvent(ctx context.Context, event *Event) error

	// GetEvent fetches a single event by id.
	// Returns ErrEventNotFound when the event does not exist.
	GetEvent(ctx context.Context, id string) (*Event, error)

	// ListDue returns up to limit pending events with ScheduledFor <= now,
	// ordered by priority rank ascending, then CreatedAt ascending.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Event, error)
}
