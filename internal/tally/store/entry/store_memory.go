// Package entry persists the append-only status log.
package entry

import (
	"context"
	"sync"

	"canvass/internal/tally"
	id "canvass/pkg/domain"
)

// InMemory is the in-memory status log used in unit tests and when no
// database is configured. Append order is the log order: each append stamps
// a monotonically increasing sequence used as the latest-wins tie-break.
type InMemory struct {
	mu      sync.RWMutex
	entries []tally.StatusEntry
	nextSeq uint64
}

// NewInMemory creates an empty in-memory status log.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds an immutable entry to the log and stamps its sequence.
func (s *InMemory) Append(ctx context.Context, e tally.StatusEntry) (tally.StatusEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	e.Seq = s.nextSeq
	s.entries = append(s.entries, e)
	return e, nil
}

// ListAll returns the whole log.
func (s *InMemory) ListAll(ctx context.Context) ([]tally.StatusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tally.StatusEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// ListByMembers returns the log entries for the given members.
func (s *InMemory) ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.StatusEntry, error) {
	wanted := make(map[id.MemberID]struct{}, len(memberIDs))
	for _, memberID := range memberIDs {
		wanted[memberID] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tally.StatusEntry
	for _, e := range s.entries {
		if _, ok := wanted[e.MemberID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// FindByIDs returns the entries with the given IDs; missing IDs are absent.
func (s *InMemory) FindByIDs(ctx context.Context, entryIDs []id.EntryID) ([]tally.StatusEntry, error) {
	wanted := make(map[id.EntryID]struct{}, len(entryIDs))
	for _, entryID := range entryIDs {
		wanted[entryID] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tally.StatusEntry
	for _, e := range s.entries {
		if _, ok := wanted[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// PurgeForResolution permanently deletes the given entries. This is the
// sole mutation of the otherwise append-only log, and only conflict
// resolution calls it.
func (s *InMemory) PurgeForResolution(ctx context.Context, entryIDs []id.EntryID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	doomed := make(map[id.EntryID]struct{}, len(entryIDs))
	for _, entryID := range entryIDs {
		doomed[entryID] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if _, ok := doomed[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}
