package eventbus

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in memory for testing and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*Event
	order  []uuid.UUID // insertion order, breaks CreatedAt ties
}

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[uuid.UUID]*Event),
	}
}

// CreateEvent stores a copy of the event.
func (ms *MemoryStore) CreateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.events[event.ID]; exists {
		return fmt.Errorf("event with ID %s already exists", event.ID)
	}

	clone := *event
	ms.events[event.ID] = &clone
	ms.order = append(ms.order, event.ID)

	return nil
}

// UpdateEvent replaces the stored event state.
func (ms *MemoryStore) UpdateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.events[event.ID]; !exists {
		return ErrEventNotFound
	}

	clone := *event
	ms.events[event.ID] = &clone

	return nil
}

// GetEvent returns a copy of the stored event.
func (ms *MemoryStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrEventNotFound
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	event, exists := ms.events[eventID]
	if !exists {
		return nil, ErrEventNotFound
	}

	clone := *event
	return &clone, nil
}

// ListDue returns pending events that are ready to process, ordered by
// priority rank then creation time; insertion order breaks exact ties.
func (ms *MemoryStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*Event, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var due []*Event
	for _, id := range ms.order {
		event := ms.events[id]
		if event.Status != StatusPending {
			continue
		}
		if event.ScheduledFor.After(now) {
			continue
		}
		clone := *event
		due = append(due, &clone)
	}

	slices.SortStableFunc(due, func(a, b *Event) int {
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}
