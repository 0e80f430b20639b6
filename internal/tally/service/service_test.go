package service

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	rosterService "canvass/internal/roster/service"
	actorStore "canvass/internal/roster/store/actor"
	memberStore "canvass/internal/roster/store/member"
	"canvass/internal/tally"
	assignmentStore "canvass/internal/tally/store/assignment"
	categoryStore "canvass/internal/tally/store/category"
	entryStore "canvass/internal/tally/store/entry"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/requestcontext"
)

// countingEntryStore wraps the entry store and counts full-log reads so
// tests can prove a request fetched exactly one snapshot.
type countingEntryStore struct {
	*entryStore.InMemory
	listAllCalls atomic.Int64
}

func (c *countingEntryStore) ListAll(ctx context.Context) ([]tally.StatusEntry, error) {
	c.listAllCalls.Add(1)
	return c.InMemory.ListAll(ctx)
}

// recordingDetector remembers which members detection was triggered for.
type recordingDetector struct {
	members []id.MemberID
}

func (d *recordingDetector) Detect(ctx context.Context, memberID id.MemberID) error {
	d.members = append(d.members, memberID)
	return nil
}

type TallyServiceSuite struct {
	suite.Suite
	service  *Service
	entries  *countingEntryStore
	detector *recordingDetector
	roster   *rosterService.Service
	ctx      context.Context

	admin      id.ActorID
	supervisor id.ActorID
	leader     id.ActorID
	member     id.MemberID
}

func TestTallyServiceSuite(t *testing.T) {
	suite.Run(t, new(TallyServiceSuite))
}

func (s *TallyServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.roster = rosterService.New(actorStore.NewInMemory(), memberStore.NewInMemory())

	admin, err := s.roster.EnsureAdmin(s.ctx, "admin")
	s.Require().NoError(err)
	s.admin = admin.ID
	supervisor, err := s.roster.CreateActor(s.ctx, s.admin, rosterService.CreateActorInput{
		Name: "sam", Role: id.RoleSupervisor,
	})
	s.Require().NoError(err)
	s.supervisor = supervisor.ID
	leader, err := s.roster.CreateActor(s.ctx, s.supervisor, rosterService.CreateActorInput{
		Name: "lena", Role: id.RoleTeamLeader,
	})
	s.Require().NoError(err)
	s.leader = leader.ID

	member, err := s.roster.CreateMember(s.ctx, s.leader, rosterService.CreateMemberInput{
		DisplayName: "Maria", MemberNumber: "M-001",
	})
	s.Require().NoError(err)
	s.member = member.ID

	s.entries = &countingEntryStore{InMemory: entryStore.NewInMemory()}
	s.detector = &recordingDetector{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.entries, assignmentStore.NewInMemory(), categoryStore.NewInMemory(), s.roster, logger)
	s.service.SetDetector(s.detector)
}

func (s *TallyServiceSuite) record(author id.ActorID, status id.Status, at time.Time) tally.StatusEntry {
	ctx := requestcontext.WithTime(s.ctx, at)
	entry, err := s.service.RecordStatus(ctx, author, RecordStatusInput{
		MemberID: s.member, Status: status,
	})
	s.Require().NoError(err)
	return entry
}

func (s *TallyServiceSuite) TestRecordStatus() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Run("appends and triggers detection", func() {
		entry := s.record(s.leader, id.StatusCalled, base)
		s.Equal(s.member, entry.MemberID)
		s.Equal(s.leader, entry.AuthorID)
		s.NotZero(entry.Seq)
		s.Contains(s.detector.members, s.member)
	})

	s.Run("unknown member is not found", func() {
		_, err := s.service.RecordStatus(s.ctx, s.leader, RecordStatusInput{
			MemberID: id.NewMemberID(), Status: id.StatusCalled,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown author is not found", func() {
		_, err := s.service.RecordStatus(s.ctx, id.NewActorID(), RecordStatusInput{
			MemberID: s.member, Status: id.StatusCalled,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *TallyServiceSuite) TestCategories() {
	s.Run("only the admin defines categories", func() {
		_, err := s.service.CreateCategory(s.ctx, s.supervisor, CreateCategoryInput{Name: "core"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicate names conflict", func() {
		_, err := s.service.CreateCategory(s.ctx, s.admin, CreateCategoryInput{Name: "core"})
		s.Require().NoError(err)
		_, err = s.service.CreateCategory(s.ctx, s.admin, CreateCategoryInput{Name: "Core"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("assignment requires an existing category", func() {
		_, err := s.service.AssignCategory(s.ctx, s.leader, AssignCategoryInput{
			MemberID: s.member, CategoryID: id.NewCategoryID(),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *TallyServiceSuite) TestSupervisorDashboard() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.record(s.supervisor, id.StatusChance, base)
	s.record(s.leader, id.StatusVoted, base.Add(time.Hour))

	s.Run("builds all scopes from one snapshot", func() {
		s.entries.listAllCalls.Store(0)
		dashboard, err := s.service.SupervisorDashboard(s.ctx, s.supervisor)
		s.Require().NoError(err)
		s.Equal(int64(1), s.entries.listAllCalls.Load(),
			"every scope must resolve against the same snapshot")

		s.Equal(1, dashboard.Self.Statuses[id.StatusChance])
		s.Require().Len(dashboard.Leaders, 1)
		s.Equal(1, dashboard.Leaders[0].Summary.Statuses[id.StatusVoted])
		s.Equal(1, dashboard.LeadersTotal.Statuses[id.StatusVoted])

		s.Equal(1, dashboard.GrandTotal.Statuses[id.StatusVoted])
		s.Equal(0, dashboard.GrandTotal.Statuses[id.StatusChance],
			"grand total resolves the member once, to the newest entry")
	})

	s.Run("team leader cannot request the dashboard", func() {
		_, err := s.service.SupervisorDashboard(s.ctx, s.leader)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *TallyServiceSuite) TestLeaderSummaryScopesToSelf() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.record(s.leader, id.StatusCalled, base)
	s.record(s.supervisor, id.StatusVoted, base.Add(time.Hour))

	summary, err := s.service.LeaderSummary(s.ctx, s.leader)
	s.Require().NoError(err)
	s.Equal(1, summary.Statuses[id.StatusCalled])
	s.Equal(0, summary.Statuses[id.StatusVoted],
		"the supervisor's newer entry is out of the leader's scope")
}

func (s *TallyServiceSuite) TestBatchStatusCategory() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.record(s.leader, id.StatusChance, base)
	s.record(s.leader, id.StatusCalled, base.Add(time.Hour))

	category, err := s.service.CreateCategory(s.ctx, s.admin, CreateCategoryInput{Name: "core"})
	s.Require().NoError(err)
	_, err = s.service.AssignCategory(s.ctx, s.leader, AssignCategoryInput{
		MemberID: s.member, CategoryID: category.ID,
	})
	s.Require().NoError(err)

	s.Run("leader sees own history and resolved category", func() {
		out, err := s.service.BatchStatusCategory(s.ctx, s.leader, []id.MemberID{s.member, id.NewMemberID()})
		s.Require().NoError(err)
		s.Require().Len(out, 1, "unknown members are absent")

		ms := out[0]
		s.Equal("Maria", ms.DisplayName)
		s.Len(ms.History, 2)
		s.Require().NotNil(ms.Current)
		s.Equal(id.StatusCalled, ms.Current.Status)
		s.Equal("core", ms.Category)
	})

	s.Run("another leader sees nothing for the member", func() {
		otherLeader, err := s.roster.CreateActor(s.ctx, s.supervisor, rosterService.CreateActorInput{
			Name: "olga", Role: id.RoleTeamLeader,
		})
		s.Require().NoError(err)

		out, err := s.service.BatchStatusCategory(s.ctx, otherLeader.ID, []id.MemberID{s.member})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Nil(out[0].Current)
		s.Empty(out[0].History)
		s.Equal(id.UncategorizedLabel, out[0].Category)
	})
}
