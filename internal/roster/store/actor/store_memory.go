// Package actor persists the actor hierarchy.
package actor

import (
	"context"
	"sync"

	"canvass/internal/roster/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// InMemory is the in-memory ActorStore used in unit tests and when no
// database is configured.
type InMemory struct {
	mu     sync.RWMutex
	actors map[id.ActorID]*models.Actor
}

// NewInMemory creates an empty in-memory actor store.
func NewInMemory() *InMemory {
	return &InMemory{actors: make(map[id.ActorID]*models.Actor)}
}

// Create stores a new actor.
func (s *InMemory) Create(ctx context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actor.ID]; ok {
		return sentinel.ErrInvalidState
	}
	cp := *actor
	s.actors[actor.ID] = &cp
	return nil
}

// FindByID returns the actor or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *actor
	return &cp, nil
}

// FindByIDs returns the actors present in the store, keyed by ID. Missing
// IDs are simply absent; callers decide whether that is an error.
func (s *InMemory) FindByIDs(ctx context.Context, ids []id.ActorID) (map[id.ActorID]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.ActorID]*models.Actor, len(ids))
	for _, actorID := range ids {
		if actor, ok := s.actors[actorID]; ok {
			cp := *actor
			out[actorID] = &cp
		}
	}
	return out, nil
}

// List returns every actor.
func (s *InMemory) List(ctx context.Context) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Actor, 0, len(s.actors))
	for _, actor := range s.actors {
		cp := *actor
		out = append(out, &cp)
	}
	return out, nil
}

// ListByRole returns every actor holding the given role.
func (s *InMemory) ListByRole(ctx context.Context, role id.Role) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Actor
	for _, actor := range s.actors {
		if actor.Role == role {
			cp := *actor
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListBySupervisor returns the team leaders reporting to the supervisor.
func (s *InMemory) ListBySupervisor(ctx context.Context, supervisorID id.ActorID) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Actor
	for _, actor := range s.actors {
		if actor.SupervisorID != nil && *actor.SupervisorID == supervisorID {
			cp := *actor
			out = append(out, &cp)
		}
	}
	return out, nil
}
