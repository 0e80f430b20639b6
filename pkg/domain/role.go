package domain

import (
	dErrors "canvass/pkg/domain-errors"
)

// Role places an actor in the reporting hierarchy. The hierarchy is a
// three-level tree: one admin over supervisors over team leaders. The only
// behavioral difference between roles is which scope-resolution rule
// applies to them.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleTeamLeader Role = "team_leader"
)

// ParseRole validates and returns a Role.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: must be 'admin', 'supervisor' or 'team_leader'")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleTeamLeader:
		return true
	}
	return false
}

// String returns the string representation.
func (r Role) String() string { return string(r) }
