package notifier

import (
	"context"
	"fmt"
	"sync"
)

// Profile is the slice of a user account the dispatch pipeline needs:
// addresses per channel and the preferred content language. The surrounding
// platform owns the authoritative user store; this is a lookup boundary.
type Profile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Language     string   `json:"language,omitempty"`
	DeviceTokens []string `json:"deviceTokens,omitempty"`
}

// ProfileStore resolves user ids to profiles.
type ProfileStore interface {
	// Get returns the profile for a user id, or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*Profile, error)
}

// MemoryProfileStore is an in-memory ProfileStore for tests.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]Profile)}
}

// Put stores a profile keyed by its id.
func (s *MemoryProfileStore) Put(profile Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

// Get implements ProfileStore.
func (s *MemoryProfileStore) Get(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, userID)
	}
	clone := profile
	return &clone, nil
}
