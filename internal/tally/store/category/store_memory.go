// Package category persists the admin-defined category label table.
package category

import (
	"context"
	"strings"
	"sync"

	"canvass/internal/tally"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// InMemory is the in-memory category table used in unit tests and when no
// database is configured.
type InMemory struct {
	mu         sync.RWMutex
	categories map[id.CategoryID]*tally.Category
}

// NewInMemory creates an empty in-memory category table.
func NewInMemory() *InMemory {
	return &InMemory{categories: make(map[id.CategoryID]*tally.Category)}
}

// Create stores a new category; names are unique case-insensitively.
func (s *InMemory) Create(ctx context.Context, c *tally.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return sentinel.ErrInvalidState
		}
	}
	clone := *c
	s.categories[c.ID] = &clone
	return nil
}

// FindByID returns the category with the given ID.
func (s *InMemory) FindByID(ctx context.Context, categoryID id.CategoryID) (*tally.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

// List returns all categories.
func (s *InMemory) List(ctx context.Context) ([]*tally.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*tally.Category, 0, len(s.categories))
	for _, c := range s.categories {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}
