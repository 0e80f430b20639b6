// Package notification persists per-watcher conflict notifications.
package notification

import (
	"context"
	"sort"
	"sync"

	"canvass/internal/conflict/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// InMemory is the in-memory notification store used in unit tests and when
// no redis is configured.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*models.ConflictNotification
}

// NewInMemory creates an empty in-memory notification store.
func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*models.ConflictNotification)}
}

// Create stores a notification; the (conflict, actor) pair is unique, so a
// repeat fan-out for the same watcher is a no-op.
func (s *InMemory) Create(ctx context.Context, n *models.ConflictNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.ConflictID == n.ConflictID && existing.ActorID == n.ActorID {
			return nil
		}
	}
	clone := *n
	s.notifications[n.ID] = &clone
	return nil
}

// ListByActor returns the watcher's notifications, newest first.
func (s *InMemory) ListByActor(ctx context.Context, actorID id.ActorID) ([]*models.ConflictNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ConflictNotification
	for _, n := range s.notifications {
		if n.ActorID == actorID {
			clone := *n
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkRead marks one of the watcher's own notifications read. Another
// watcher's notification is not found, not forbidden: watchers cannot
// observe each other's notification IDs.
func (s *InMemory) MarkRead(ctx context.Context, actorID id.ActorID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.ActorID != actorID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead marks all of the watcher's notifications read.
func (s *InMemory) MarkAllRead(ctx context.Context, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ActorID == actorID {
			n.Read = true
		}
	}
	return nil
}
