package template

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process setups.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMemoryStore creates an empty in-memory template store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]Template)}
}

// GetActive implements Store.
func (s *MemoryStore) GetActive(ctx context.Context, templateID string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}
	if !tpl.Active {
		return nil, fmt.Errorf("%w: %q", ErrTemplateInactive, templateID)
	}

	clone := tpl
	return &clone, nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, tpl *Template) error {
	if tpl == nil {
		return fmt.Errorf("%w: nil template", ErrTemplateInvalid)
	}
	if err := tpl.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *tpl
	now := time.Now()
	if existing, ok := s.templates[tpl.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.templates[tpl.ID] = stored
	return nil
}
