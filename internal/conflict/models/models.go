// Package models defines the conflict and notification records.
package models

import (
	"time"

	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
)

// StatusConflict records that two or more authors' current status entries
// for one member disagree. At most one unresolved conflict exists per
// member; detection updates StatusIDs of the open record instead of
// creating a second one.
type StatusConflict struct {
	ID         id.ConflictID `json:"id"`
	MemberID   id.MemberID   `json:"member_id"`
	StatusIDs  []id.EntryID  `json:"status_ids"`
	Resolved   bool          `json:"resolved"`
	ResolvedBy *id.ActorID   `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewStatusConflict creates an unresolved conflict over the given
// author-current entries.
func NewStatusConflict(memberID id.MemberID, statusIDs []id.EntryID, createdAt time.Time) (*StatusConflict, error) {
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "member reference cannot be empty")
	}
	if len(statusIDs) < 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a conflict references at least two entries")
	}
	return &StatusConflict{
		ID:        id.NewConflictID(),
		MemberID:  memberID,
		StatusIDs: statusIDs,
		CreatedAt: createdAt,
	}, nil
}

// ConflictNotification is one watcher's pointer at one conflict. The
// (conflict, actor) pair is unique; read state is per watcher.
type ConflictNotification struct {
	ID         id.NotificationID `json:"id"`
	ConflictID id.ConflictID     `json:"conflict_id"`
	ActorID    id.ActorID        `json:"actor_id"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewConflictNotification creates an unread notification for one watcher.
func NewConflictNotification(conflictID id.ConflictID, actorID id.ActorID, createdAt time.Time) (*ConflictNotification, error) {
	if conflictID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "conflict reference cannot be empty")
	}
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor reference cannot be empty")
	}
	return &ConflictNotification{
		ID:         id.NewNotificationID(),
		ConflictID: conflictID,
		ActorID:    actorID,
		CreatedAt:  createdAt,
	}, nil
}
