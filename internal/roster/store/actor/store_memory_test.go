package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"canvass/internal/roster/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

type ActorStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ActorStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestActorStoreSuite(t *testing.T) {
	suite.Run(t, new(ActorStoreSuite))
}

func (s *ActorStoreSuite) newActor(name string, role id.Role, supervisorID *id.ActorID) *models.Actor {
	actor, err := models.NewActor(name, role, supervisorID)
	s.Require().NoError(err)
	return actor
}

func (s *ActorStoreSuite) TestCreateAndFind() {
	admin := s.newActor("admin", id.RoleAdmin, nil)
	s.Require().NoError(s.store.Create(s.ctx, admin))

	found, err := s.store.FindByID(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.Equal(admin.Name, found.Name)
	s.Equal(admin.Role, found.Role)

	s.Run("unknown ID is not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewActorID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate ID is rejected", func() {
		s.Require().ErrorIs(s.store.Create(s.ctx, admin), sentinel.ErrInvalidState)
	})
}

func (s *ActorStoreSuite) TestHierarchyQueries() {
	supervisor := s.newActor("sam", id.RoleSupervisor, nil)
	s.Require().NoError(s.store.Create(s.ctx, supervisor))
	leader := s.newActor("lena", id.RoleTeamLeader, &supervisor.ID)
	s.Require().NoError(s.store.Create(s.ctx, leader))
	other := s.newActor("omar", id.RoleSupervisor, nil)
	s.Require().NoError(s.store.Create(s.ctx, other))

	s.Run("ListBySupervisor returns only that team", func() {
		team, err := s.store.ListBySupervisor(s.ctx, supervisor.ID)
		s.Require().NoError(err)
		s.Require().Len(team, 1)
		s.Equal(leader.ID, team[0].ID)

		empty, err := s.store.ListBySupervisor(s.ctx, other.ID)
		s.Require().NoError(err)
		s.Empty(empty)
	})

	s.Run("ListByRole filters by role", func() {
		supervisors, err := s.store.ListByRole(s.ctx, id.RoleSupervisor)
		s.Require().NoError(err)
		s.Len(supervisors, 2)

		admins, err := s.store.ListByRole(s.ctx, id.RoleAdmin)
		s.Require().NoError(err)
		s.Empty(admins)
	})

	s.Run("FindByIDs skips missing IDs", func() {
		byID, err := s.store.FindByIDs(s.ctx, []id.ActorID{leader.ID, id.NewActorID()})
		s.Require().NoError(err)
		s.Len(byID, 1)
		s.Contains(byID, leader.ID)
	})

	s.Run("returned actors are copies", func() {
		found, err := s.store.FindByID(s.ctx, leader.ID)
		s.Require().NoError(err)
		found.Name = "mutated"

		again, err := s.store.FindByID(s.ctx, leader.ID)
		s.Require().NoError(err)
		s.Equal("lena", again.Name)
	})
}
