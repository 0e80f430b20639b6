// Package assignment persists the append-only category assignment log.
package assignment

import (
	"context"
	"sync"

	"canvass/internal/tally"
	id "canvass/pkg/domain"
)

// InMemory is the in-memory assignment log used in unit tests and when no
// database is configured.
type InMemory struct {
	mu          sync.RWMutex
	assignments []tally.CategoryAssignment
	nextSeq     uint64
}

// NewInMemory creates an empty in-memory assignment log.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds an immutable assignment to the log and stamps its sequence.
func (s *InMemory) Append(ctx context.Context, a tally.CategoryAssignment) (tally.CategoryAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	a.Seq = s.nextSeq
	s.assignments = append(s.assignments, a)
	return a, nil
}

// ListAll returns the whole log.
func (s *InMemory) ListAll(ctx context.Context) ([]tally.CategoryAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tally.CategoryAssignment, len(s.assignments))
	copy(out, s.assignments)
	return out, nil
}

// ListByMembers returns the log entries for the given members.
func (s *InMemory) ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.CategoryAssignment, error) {
	wanted := make(map[id.MemberID]struct{}, len(memberIDs))
	for _, memberID := range memberIDs {
		wanted[memberID] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tally.CategoryAssignment
	for _, a := range s.assignments {
		if _, ok := wanted[a.MemberID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
