package settings

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]Setting
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: make(map[string]Setting)}
}

// GetOrCreate implements Store.
func (s *MemoryStore) GetOrCreate(ctx context.Context, userID string) (*Setting, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.settings[userID]; ok {
		clone := stored
		return &clone, nil
	}

	created := Defaults(userID)
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.settings[userID] = *created

	clone := *created
	return &clone, nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, setting *Setting) error {
	if setting == nil || setting.UserID == "" {
		return ErrUserIDEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *setting
	if existing, ok := s.settings[setting.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	s.settings[setting.UserID] = stored
	return nil
}

// ListDigestUsers implements Store. Results are ordered by user id so runs
// are deterministic.
func (s *MemoryStore) ListDigestUsers(ctx context.Context, cadence Cadence) ([]*Setting, error) {
	if !cadence.Valid() {
		return nil, ErrInvalidCadence
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Setting
	for _, stored := range s.settings {
		if stored.Digest.Frequency != cadence || !stored.WantsDigest() {
			continue
		}
		clone := stored
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
