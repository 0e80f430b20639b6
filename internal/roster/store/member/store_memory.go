// Package member persists the externally owned member records this engine
// references.
package member

import (
	"context"
	"sync"

	"canvass/internal/roster/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// InMemory is the in-memory MemberStore used in unit tests and when no
// database is configured.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.MemberID]*models.Member
}

// NewInMemory creates an empty in-memory member store.
func NewInMemory() *InMemory {
	return &InMemory{members: make(map[id.MemberID]*models.Member)}
}

// Create stores a new member.
func (s *InMemory) Create(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *member
	s.members[member.ID] = &cp
	return nil
}

// FindByID returns the member or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *member
	return &cp, nil
}

// List returns every member.
func (s *InMemory) List(ctx context.Context) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.members))
	for _, member := range s.members {
		cp := *member
		out = append(out, &cp)
	}
	return out, nil
}

// FindByIDs returns the members present in the store, keyed by ID.
func (s *InMemory) FindByIDs(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.MemberID]*models.Member, len(ids))
	for _, memberID := range ids {
		if member, ok := s.members[memberID]; ok {
			cp := *member
			out[memberID] = &cp
		}
	}
	return out, nil
}
