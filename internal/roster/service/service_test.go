package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"canvass/internal/roster/models"
	actorStore "canvass/internal/roster/store/actor"
	memberStore "canvass/internal/roster/store/member"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
)

type RosterServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context

	admin      *models.Actor
	supervisor *models.Actor
	leader     *models.Actor
}

func TestRosterServiceSuite(t *testing.T) {
	suite.Run(t, new(RosterServiceSuite))
}

func (s *RosterServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = New(actorStore.NewInMemory(), memberStore.NewInMemory())

	var err error
	s.admin, err = s.service.EnsureAdmin(s.ctx, "admin")
	s.Require().NoError(err)
	s.supervisor, err = s.service.CreateActor(s.ctx, s.admin.ID, CreateActorInput{
		Name: "sam", Role: id.RoleSupervisor,
	})
	s.Require().NoError(err)
	s.leader, err = s.service.CreateActor(s.ctx, s.supervisor.ID, CreateActorInput{
		Name: "lena", Role: id.RoleTeamLeader,
	})
	s.Require().NoError(err)
}

func (s *RosterServiceSuite) TestEnsureAdminIsIdempotent() {
	again, err := s.service.EnsureAdmin(s.ctx, "someone else")
	s.Require().NoError(err)
	s.Equal(s.admin.ID, again.ID)
}

func (s *RosterServiceSuite) TestAdmissibleAuthors() {
	s.Run("admin sees every actor", func() {
		scope, err := s.service.AdmissibleAuthors(s.ctx, s.admin.ID)
		s.Require().NoError(err)
		s.True(scope.Contains(s.admin.ID))
		s.True(scope.Contains(s.supervisor.ID))
		s.True(scope.Contains(s.leader.ID))
	})

	s.Run("supervisor sees self and own leaders", func() {
		scope, err := s.service.AdmissibleAuthors(s.ctx, s.supervisor.ID)
		s.Require().NoError(err)
		s.True(scope.Contains(s.supervisor.ID))
		s.True(scope.Contains(s.leader.ID))
		s.False(scope.Contains(s.admin.ID))
	})

	s.Run("team leader sees only self", func() {
		scope, err := s.service.AdmissibleAuthors(s.ctx, s.leader.ID)
		s.Require().NoError(err)
		s.True(scope.Contains(s.leader.ID))
		s.Len(scope, 1)
	})

	s.Run("unknown caller is not found", func() {
		_, err := s.service.AdmissibleAuthors(s.ctx, id.NewActorID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RosterServiceSuite) TestCreateActorPermissions() {
	s.Run("supervisor created leaders land under that supervisor", func() {
		s.Require().NotNil(s.leader.SupervisorID)
		s.Equal(s.supervisor.ID, *s.leader.SupervisorID)
	})

	s.Run("supervisor cannot create a supervisor", func() {
		_, err := s.service.CreateActor(s.ctx, s.supervisor.ID, CreateActorInput{
			Name: "peer", Role: id.RoleSupervisor,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("team leader cannot create anyone", func() {
		_, err := s.service.CreateActor(s.ctx, s.leader.ID, CreateActorInput{
			Name: "helper", Role: id.RoleTeamLeader,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin cannot create a second admin", func() {
		_, err := s.service.CreateActor(s.ctx, s.admin.ID, CreateActorInput{
			Name: "admin2", Role: id.RoleAdmin,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("team leader requires an existing supervisor", func() {
		ghost := id.NewActorID()
		_, err := s.service.CreateActor(s.ctx, s.admin.ID, CreateActorInput{
			Name: "orphan", Role: id.RoleTeamLeader, SupervisorID: &ghost,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("supervisor reference must hold the supervisor role", func() {
		leaderID := s.leader.ID
		_, err := s.service.CreateActor(s.ctx, s.admin.ID, CreateActorInput{
			Name: "nested", Role: id.RoleTeamLeader, SupervisorID: &leaderID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RosterServiceSuite) TestListActorsFollowsScope() {
	leaders, err := s.service.ListActors(s.ctx, s.leader.ID)
	s.Require().NoError(err)
	s.Len(leaders, 1)
	s.Equal(s.leader.ID, leaders[0].ID)

	all, err := s.service.ListActors(s.ctx, s.admin.ID)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *RosterServiceSuite) TestMembers() {
	member, err := s.service.CreateMember(s.ctx, s.leader.ID, CreateMemberInput{
		DisplayName: "Maria", MemberNumber: "M-001",
	})
	s.Require().NoError(err)

	members, err := s.service.ListMembers(s.ctx)
	s.Require().NoError(err)
	s.Len(members, 1)

	byID, err := s.service.MembersByID(s.ctx, []id.MemberID{member.ID, id.NewMemberID()})
	s.Require().NoError(err)
	s.Len(byID, 1)
	s.Contains(byID, member.ID)
}
