// Package service implements hierarchy management and scope resolution.
//
// The scope rules are the heart of role-based visibility: every read path
// (summaries, batch lookups, conflict detection) first asks this service
// which authors are admissible for the caller, then resolves the fact log
// against exactly that set.
package service

import (
	"context"
	"errors"

	"canvass/internal/roster/models"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/sentinel"
)

// ActorStore persists the actor hierarchy.
type ActorStore interface {
	Create(ctx context.Context, actor *models.Actor) error
	FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error)
	FindByIDs(ctx context.Context, ids []id.ActorID) (map[id.ActorID]*models.Actor, error)
	List(ctx context.Context) ([]*models.Actor, error)
	ListByRole(ctx context.Context, role id.Role) ([]*models.Actor, error)
	ListBySupervisor(ctx context.Context, supervisorID id.ActorID) ([]*models.Actor, error)
}

// MemberStore reads the externally owned member records.
type MemberStore interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	FindByIDs(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
}

// Service resolves scopes and manages actors.
type Service struct {
	actors  ActorStore
	members MemberStore
}

// New constructs the roster service.
func New(actors ActorStore, members MemberStore) *Service {
	return &Service{actors: actors, members: members}
}

// Caller looks up the calling actor, translating store facts into domain
// errors.
func (s *Service) Caller(ctx context.Context, callerID id.ActorID) (*models.Actor, error) {
	actor, err := s.actors.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "actor not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load caller", err)
	}
	return actor, nil
}

// AdmissibleAuthors computes the set of actors whose entries are visible and
// countable for the caller:
//
//	admin       -> all actors
//	supervisor  -> self plus own team leaders
//	team_leader -> self only
func (s *Service) AdmissibleAuthors(ctx context.Context, callerID id.ActorID) (id.Scope, error) {
	caller, err := s.Caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.scopeFor(ctx, caller)
}

func (s *Service) scopeFor(ctx context.Context, caller *models.Actor) (id.Scope, error) {
	switch caller.Role {
	case id.RoleAdmin:
		all, err := s.actors.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "list actors", err)
		}
		scope := id.NewScope()
		for _, actor := range all {
			scope.Add(actor.ID)
		}
		return scope, nil
	case id.RoleSupervisor:
		leaders, err := s.actors.ListBySupervisor(ctx, caller.ID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "list team leaders", err)
		}
		scope := id.NewScope(caller.ID)
		for _, leader := range leaders {
			scope.Add(leader.ID)
		}
		return scope, nil
	case id.RoleTeamLeader:
		return id.NewScope(caller.ID), nil
	default:
		return nil, dErrors.New(dErrors.CodeInternal, "unknown role: "+caller.Role.String())
	}
}

// Admins returns the admin actors; conflict notifications fan out to them.
func (s *Service) Admins(ctx context.Context) ([]*models.Actor, error) {
	admins, err := s.actors.ListByRole(ctx, id.RoleAdmin)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list admins", err)
	}
	return admins, nil
}

// EnsureAdmin creates the admin actor at startup if none exists yet, and
// returns it. Safe to call on every boot.
func (s *Service) EnsureAdmin(ctx context.Context, name string) (*models.Actor, error) {
	admins, err := s.actors.ListByRole(ctx, id.RoleAdmin)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list admins", err)
	}
	if len(admins) > 0 {
		return admins[0], nil
	}
	admin, err := models.NewActor(name, id.RoleAdmin, nil)
	if err != nil {
		return nil, err
	}
	if err := s.actors.Create(ctx, admin); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create admin", err)
	}
	return admin, nil
}

// Leaders returns the team leaders reporting to the supervisor.
func (s *Service) Leaders(ctx context.Context, supervisorID id.ActorID) ([]*models.Actor, error) {
	leaders, err := s.actors.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list team leaders", err)
	}
	return leaders, nil
}

// CreateActorInput carries the fields needed to add an actor to the
// hierarchy.
type CreateActorInput struct {
	Name         string
	Role         id.Role
	SupervisorID *id.ActorID
}

// CreateActor adds an actor subject to the permission rule: an admin may
// create supervisors and team leaders; a supervisor may create only team
// leaders under themselves. Permission is checked before any store write.
func (s *Service) CreateActor(ctx context.Context, callerID id.ActorID, input CreateActorInput) (*models.Actor, error) {
	caller, err := s.Caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case id.RoleAdmin:
		if input.Role == id.RoleAdmin {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "there is exactly one admin")
		}
	case id.RoleSupervisor:
		if input.Role != id.RoleTeamLeader {
			return nil, dErrors.New(dErrors.CodeForbidden, "supervisors may only create team leaders")
		}
		// Leaders created by a supervisor always land under that supervisor.
		supervisorID := caller.ID
		input.SupervisorID = &supervisorID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "role not permitted to create actors")
	}

	if input.Role == id.RoleTeamLeader {
		if input.SupervisorID == nil || input.SupervisorID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "team leader requires a supervisor")
		}
		supervisor, err := s.actors.FindByID(ctx, *input.SupervisorID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "supervisor not found")
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "load supervisor", err)
		}
		if supervisor.Role != id.RoleSupervisor {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "supervisor reference must be a supervisor")
		}
	}

	actor, err := models.NewActor(input.Name, input.Role, input.SupervisorID)
	if err != nil {
		return nil, err
	}
	if err := s.actors.Create(ctx, actor); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create actor", err)
	}
	return actor, nil
}

// ListActors returns the actors visible to the caller, i.e. the actors in
// the caller's admissible scope.
func (s *Service) ListActors(ctx context.Context, callerID id.ActorID) ([]*models.Actor, error) {
	scope, err := s.AdmissibleAuthors(ctx, callerID)
	if err != nil {
		return nil, err
	}
	ids := make([]id.ActorID, 0, len(scope))
	for actorID := range scope {
		ids = append(ids, actorID)
	}
	byID, err := s.actors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load actors", err)
	}
	out := make([]*models.Actor, 0, len(byID))
	for _, actor := range byID {
		out = append(out, actor)
	}
	return out, nil
}

// ActorsByID batch-loads actors for enrichment; missing IDs are absent from
// the result.
func (s *Service) ActorsByID(ctx context.Context, ids []id.ActorID) (map[id.ActorID]*models.Actor, error) {
	byID, err := s.actors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load actors", err)
	}
	return byID, nil
}

// CreateMemberInput carries the fields of one member record.
type CreateMemberInput struct {
	DisplayName  string
	MemberNumber string
}

// CreateMember registers a member record. Membership itself is owned
// elsewhere; this only mirrors the record the tracker needs to reference.
func (s *Service) CreateMember(ctx context.Context, callerID id.ActorID, input CreateMemberInput) (*models.Member, error) {
	if _, err := s.Caller(ctx, callerID); err != nil {
		return nil, err
	}
	member, err := models.NewMember(input.DisplayName, input.MemberNumber)
	if err != nil {
		return nil, err
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create member", err)
	}
	return member, nil
}

// ListMembers returns every member record.
func (s *Service) ListMembers(ctx context.Context) ([]*models.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list members", err)
	}
	return members, nil
}

// MembersByID batch-loads members for enrichment; missing IDs are absent
// from the result.
func (s *Service) MembersByID(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error) {
	byID, err := s.members.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load members", err)
	}
	return byID, nil
}
