// Package conflict persists status conflicts.
package conflict

import (
	"context"
	"sort"
	"sync"
	"time"

	"canvass/internal/conflict/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// InMemory is the in-memory conflict store used in unit tests and when no
// database is configured.
type InMemory struct {
	mu        sync.RWMutex
	conflicts map[id.ConflictID]*models.StatusConflict
}

// NewInMemory creates an empty in-memory conflict store.
func NewInMemory() *InMemory {
	return &InMemory{conflicts: make(map[id.ConflictID]*models.StatusConflict)}
}

// Create stores a new conflict. At most one unresolved conflict may exist
// per member; a second open one is rejected.
func (s *InMemory) Create(ctx context.Context, c *models.StatusConflict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.conflicts {
		if !existing.Resolved && existing.MemberID == c.MemberID {
			return sentinel.ErrInvalidState
		}
	}
	s.conflicts[c.ID] = cloneConflict(c)
	return nil
}

// FindByID returns the conflict or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, conflictID id.ConflictID) (*models.StatusConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conflicts[conflictID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneConflict(c), nil
}

// FindOpenByMember returns the member's unresolved conflict, if any.
func (s *InMemory) FindOpenByMember(ctx context.Context, memberID id.MemberID) (*models.StatusConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conflicts {
		if !c.Resolved && c.MemberID == memberID {
			return cloneConflict(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// UpdateStatusIDs replaces the referenced entries of an open conflict.
func (s *InMemory) UpdateStatusIDs(ctx context.Context, conflictID id.ConflictID, statusIDs []id.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conflicts[conflictID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Resolved {
		return sentinel.ErrAlreadyResolved
	}
	c.StatusIDs = append([]id.EntryID(nil), statusIDs...)
	return nil
}

// List returns conflicts, optionally filtered by resolved state, newest
// first.
func (s *InMemory) List(ctx context.Context, resolved *bool) ([]*models.StatusConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.StatusConflict
	for _, c := range s.conflicts {
		if resolved != nil && c.Resolved != *resolved {
			continue
		}
		out = append(out, cloneConflict(c))
	}
	sortConflicts(out)
	return out, nil
}

// MarkResolved flips the resolved flag, guarded by the resolved=false
// precondition. A second resolve observes sentinel.ErrAlreadyResolved.
func (s *InMemory) MarkResolved(ctx context.Context, conflictID id.ConflictID, resolvedBy id.ActorID, resolvedAt time.Time, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conflicts[conflictID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Resolved {
		return sentinel.ErrAlreadyResolved
	}
	c.Resolved = true
	c.ResolvedBy = &resolvedBy
	c.ResolvedAt = &resolvedAt
	c.Notes = notes
	return nil
}

func cloneConflict(c *models.StatusConflict) *models.StatusConflict {
	clone := *c
	clone.StatusIDs = append([]id.EntryID(nil), c.StatusIDs...)
	return &clone
}

func sortConflicts(conflicts []*models.StatusConflict) {
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].CreatedAt.After(conflicts[j].CreatedAt)
	})
}
