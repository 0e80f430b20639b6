// Package models defines the actors and members the engine tracks.
package models

import (
	"time"

	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
)

// Actor is a person who can author status and category facts. The hierarchy
// is a tree carried as data: team leaders reference their supervisor,
// supervisors and the admin have no parent.
type Actor struct {
	ID           id.ActorID  `json:"id"`
	Name         string      `json:"name"`
	Role         id.Role     `json:"role"`
	SupervisorID *id.ActorID `json:"supervisor_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewActor creates an Actor with domain invariant validation: a team leader
// has exactly one supervisor, everyone else has none.
func NewActor(name string, role id.Role, supervisorID *id.ActorID) (*Actor, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	if role == id.RoleTeamLeader {
		if supervisorID == nil || supervisorID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "team leader requires a supervisor")
		}
	} else if supervisorID != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "only team leaders have a supervisor")
	}

	return &Actor{
		ID:           id.NewActorID(),
		Name:         name,
		Role:         role,
		SupervisorID: supervisorID,
		CreatedAt:    time.Now(),
	}, nil
}

// Member is the subject being tracked. Members are created by import/CRUD
// outside this engine and referenced by identity.
type Member struct {
	ID           id.MemberID `json:"id"`
	DisplayName  string      `json:"display_name"`
	MemberNumber string      `json:"member_number"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewMember creates a Member with domain invariant validation.
func NewMember(displayName, memberNumber string) (*Member, error) {
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "display name cannot be empty")
	}
	if memberNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "member number cannot be empty")
	}
	return &Member{
		ID:           id.NewMemberID(),
		DisplayName:  displayName,
		MemberNumber: memberNumber,
		CreatedAt:    time.Now(),
	}, nil
}
