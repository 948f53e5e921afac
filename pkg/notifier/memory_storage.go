package notifier

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage for tests and single-process setups.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	order   []uuid.UUID
}

// NewMemoryStorage creates an empty in-memory record storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[uuid.UUID]*Record)}
}

// Create implements Storage.
func (s *MemoryStorage) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrRecordNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	s.order = append(s.order, record.ID)
	return nil
}

// ListSince implements Storage.
func (s *MemoryStorage) ListSince(ctx context.Context, userID string, since time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, id := range s.order {
		r := s.records[id]
		if r.Recipient != userID || r.IsDeleted || r.CreatedAt.Before(since) {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}

	// Newest first; insertion order breaks creation-time ties.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b *Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// MarkRead implements Storage.
func (s *MemoryStorage) MarkRead(ctx context.Context, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordID]
	if !ok {
		return ErrRecordNotFound
	}
	r.Read = true
	return nil
}

// CountUnread implements Storage.
func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if r.Recipient == userID && !r.Read && !r.IsDeleted {
			n++
		}
	}
	return n, nil
}
