package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"canvass/internal/conflict/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// RedisStore keeps notifications in redis, one hash per watcher keyed by
// notification ID plus a dedup set per watcher keyed by conflict ID.
// Notifications are small, per-actor and read-mostly, which suits a hash
// better than a table when a database is not configured.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a redis-backed notification store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func actorKey(actorID id.ActorID) string {
	return "canvass:notifications:" + actorID.String()
}

func dedupKey(actorID id.ActorID) string {
	return "canvass:notified-conflicts:" + actorID.String()
}

// Create stores a notification; a repeat fan-out for the same (conflict,
// actor) pair is a no-op.
func (s *RedisStore) Create(ctx context.Context, n *models.ConflictNotification) error {
	added, err := s.client.SAdd(ctx, dedupKey(n.ActorID), n.ConflictID.String()).Result()
	if err != nil {
		return fmt.Errorf("dedup notification: %w", err)
	}
	if added == 0 {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.HSet(ctx, actorKey(n.ActorID), n.ID.String(), payload).Err(); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// ListByActor returns the watcher's notifications, newest first.
func (s *RedisStore) ListByActor(ctx context.Context, actorID id.ActorID) ([]*models.ConflictNotification, error) {
	raw, err := s.client.HGetAll(ctx, actorKey(actorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*models.ConflictNotification, 0, len(raw))
	for _, payload := range raw {
		var n models.ConflictNotification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		out = append(out, &n)
	}
	sortNotifications(out)
	return out, nil
}

// MarkRead marks one of the watcher's own notifications read.
func (s *RedisStore) MarkRead(ctx context.Context, actorID id.ActorID, notificationID id.NotificationID) error {
	key := actorKey(actorID)
	payload, err := s.client.HGet(ctx, key, notificationID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	var n models.ConflictNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return fmt.Errorf("unmarshal notification: %w", err)
	}
	n.Read = true
	updated, err := json.Marshal(&n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.HSet(ctx, key, notificationID.String(), updated).Err(); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the watcher's notifications read.
func (s *RedisStore) MarkAllRead(ctx context.Context, actorID id.ActorID) error {
	notifications, err := s.ListByActor(ctx, actorID)
	if err != nil {
		return err
	}
	if len(notifications) == 0 {
		return nil
	}
	fields := make([]any, 0, len(notifications)*2)
	for _, n := range notifications {
		n.Read = true
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		fields = append(fields, n.ID.String(), payload)
	}
	if err := s.client.HSet(ctx, actorKey(actorID), fields...).Err(); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}
	return nil
}

func sortNotifications(notifications []*models.ConflictNotification) {
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
}
