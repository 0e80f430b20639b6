package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	conflictMetrics "canvass/internal/conflict/metrics"
	conflictStore "canvass/internal/conflict/store/conflict"
	notificationStore "canvass/internal/conflict/store/notification"
	rosterService "canvass/internal/roster/service"
	actorStore "canvass/internal/roster/store/actor"
	memberStore "canvass/internal/roster/store/member"
	"canvass/internal/tally"
	entryStore "canvass/internal/tally/store/entry"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
)

type ConflictServiceSuite struct {
	suite.Suite
	service *Service
	entries *entryStore.InMemory
	roster  *rosterService.Service
	ctx     context.Context

	admin      id.ActorID
	supervisor id.ActorID
	leader     id.ActorID
	member     id.MemberID
}

func TestConflictServiceSuite(t *testing.T) {
	suite.Run(t, new(ConflictServiceSuite))
}

func (s *ConflictServiceSuite) SetupTest() {
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

	s.entries = entryStore.NewInMemory()
	s.service = New(
		conflictStore.NewInMemory(),
		notificationStore.NewInMemory(),
		s.entries,
		s.roster,
		nil,
		conflictMetrics.NewWith(prometheus.NewRegistry()),
	)
}

func (s *ConflictServiceSuite) append(author id.ActorID, status id.Status, at time.Time) tally.StatusEntry {
	entry, err := tally.NewStatusEntry(s.member, status, "", author, at)
	s.Require().NoError(err)
	entry, err = s.entries.Append(s.ctx, entry)
	s.Require().NoError(err)
	return entry
}

func (s *ConflictServiceSuite) openConflicts() []ConflictDetail {
	open := false
	conflicts, err := s.service.List(s.ctx, s.admin, &open)
	s.Require().NoError(err)
	return conflicts
}

func (s *ConflictServiceSuite) TestDetect() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Run("agreement opens nothing", func() {
		s.append(s.leader, id.StatusCalled, base)
		s.append(s.supervisor, id.StatusCalled, base.Add(time.Minute))
		s.Require().NoError(s.service.Detect(s.ctx, s.member))
		s.Empty(s.openConflicts())
	})

	s.Run("disagreeing current entries open exactly one conflict", func() {
		s.append(s.supervisor, id.StatusVoted, base.Add(time.Hour))
		s.Require().NoError(s.service.Detect(s.ctx, s.member))

		conflicts := s.openConflicts()
		s.Require().Len(conflicts, 1)
		s.Equal(s.member, conflicts[0].Conflict.MemberID)
		s.Len(conflicts[0].Conflict.StatusIDs, 2, "one current entry per author")
	})

	s.Run("re-running detection is idempotent", func() {
		before := s.openConflicts()
		s.Require().NoError(s.service.Detect(s.ctx, s.member))
		after := s.openConflicts()
		s.Require().Len(after, 1)
		s.Equal(before[0].Conflict.ID, after[0].Conflict.ID)
		s.ElementsMatch(before[0].Conflict.StatusIDs, after[0].Conflict.StatusIDs)
	})

	s.Run("new disagreeing entry updates the open conflict in place", func() {
		existing := s.openConflicts()
		s.Require().Len(existing, 1)

		s.append(s.leader, id.StatusSureVote, base.Add(2*time.Hour))
		s.Require().NoError(s.service.Detect(s.ctx, s.member))

		updated := s.openConflicts()
		s.Require().Len(updated, 1)
		s.Equal(existing[0].Conflict.ID, updated[0].Conflict.ID)
		s.NotElementsMatch(existing[0].Conflict.StatusIDs, updated[0].Conflict.StatusIDs)
	})
}

func (s *ConflictServiceSuite) TestDetectNotifiesAdmins() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.append(s.leader, id.StatusCalled, base)
	s.append(s.supervisor, id.StatusVoted, base.Add(time.Minute))
	s.Require().NoError(s.service.Detect(s.ctx, s.member))

	s.Run("the admin is notified once", func() {
		notifications, err := s.service.Notifications(s.ctx, s.admin)
		s.Require().NoError(err)
		s.Require().Len(notifications, 1)
		s.False(notifications[0].Read)
	})

	s.Run("other actors are not notified", func() {
		notifications, err := s.service.Notifications(s.ctx, s.supervisor)
		s.Require().NoError(err)
		s.Empty(notifications)
	})

	s.Run("marking read is per watcher and notification", func() {
		notifications, err := s.service.Notifications(s.ctx, s.admin)
		s.Require().NoError(err)
		s.Require().Len(notifications, 1)

		err = s.service.MarkRead(s.ctx, s.supervisor, notifications[0].ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound),
			"another watcher cannot touch the admin's notification")

		s.Require().NoError(s.service.MarkRead(s.ctx, s.admin, notifications[0].ID))
		notifications, err = s.service.Notifications(s.ctx, s.admin)
		s.Require().NoError(err)
		s.True(notifications[0].Read)
	})
}

func (s *ConflictServiceSuite) TestReconcile() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.append(s.leader, id.StatusCalled, base)
	s.append(s.supervisor, id.StatusVoted, base.Add(time.Minute))

	s.Require().NoError(s.service.Reconcile(s.ctx))
	s.Len(s.openConflicts(), 1)

	s.Require().NoError(s.service.Reconcile(s.ctx))
	s.Len(s.openConflicts(), 1, "reconcile is idempotent")
}

func (s *ConflictServiceSuite) TestListIsAdminOnly() {
	_, err := s.service.List(s.ctx, s.supervisor, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ConflictServiceSuite) TestListEnrichment() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.append(s.leader, id.StatusCalled, base)
	s.append(s.supervisor, id.StatusVoted, base.Add(time.Minute))
	s.Require().NoError(s.service.Detect(s.ctx, s.member))

	conflicts, err := s.service.List(s.ctx, s.admin, nil)
	s.Require().NoError(err)
	s.Require().Len(conflicts, 1)

	detail := conflicts[0]
	s.Equal("Maria", detail.MemberName)
	s.Equal("M-001", detail.MemberNumber)
	s.Require().Len(detail.Entries, 2)

	byAuthor := make(map[string]EntryDetail)
	for _, ed := range detail.Entries {
		byAuthor[ed.AuthorName] = ed
	}
	s.Equal(id.RoleTeamLeader, byAuthor["lena"].AuthorRole)
	s.Equal("sam", byAuthor["lena"].SupervisorName, "team leader authors carry their supervisor")
	s.Equal(id.RoleSupervisor, byAuthor["sam"].AuthorRole)
	s.Empty(byAuthor["sam"].SupervisorName)
}

func (s *ConflictServiceSuite) TestResolve() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kept := s.append(s.leader, id.StatusCalled, base)
	dropped := s.append(s.supervisor, id.StatusVoted, base.Add(time.Minute))
	s.Require().NoError(s.service.Detect(s.ctx, s.member))
	conflictID := s.openConflicts()[0].Conflict.ID

	s.Run("non admins cannot resolve", func() {
		_, err := s.service.Resolve(s.ctx, s.supervisor, ResolveInput{ConflictID: conflictID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("kept entries must belong to the conflict", func() {
		_, err := s.service.Resolve(s.ctx, s.admin, ResolveInput{
			ConflictID: conflictID,
			KeepIDs:    []id.EntryID{id.NewEntryID()},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("resolve deletes non-kept entries and marks resolved", func() {
		resolved, err := s.service.Resolve(s.ctx, s.admin, ResolveInput{
			ConflictID: conflictID,
			KeepIDs:    []id.EntryID{kept.ID},
			Notes:      "kept the phone call",
		})
		s.Require().NoError(err)
		s.True(resolved.Resolved)
		s.Require().NotNil(resolved.ResolvedBy)
		s.Equal(s.admin, *resolved.ResolvedBy)
		s.Equal("kept the phone call", resolved.Notes)

		remaining, err := s.entries.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(remaining, 1)
		s.Equal(kept.ID, remaining[0].ID)
		s.NotEqual(dropped.ID, remaining[0].ID)
	})

	s.Run("a second resolve is rejected without another deletion", func() {
		_, err := s.service.Resolve(s.ctx, s.admin, ResolveInput{ConflictID: conflictID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		remaining, err := s.entries.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(remaining, 1)
	})

	s.Run("unknown conflict is not found", func() {
		_, err := s.service.Resolve(s.ctx, s.admin, ResolveInput{ConflictID: id.NewConflictID()})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ConflictServiceSuite) TestResolveWithEmptyKeepSet() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.append(s.leader, id.StatusCalled, base)
	s.append(s.supervisor, id.StatusVoted, base.Add(time.Minute))
	s.Require().NoError(s.service.Detect(s.ctx, s.member))
	conflictID := s.openConflicts()[0].Conflict.ID

	resolved, err := s.service.Resolve(s.ctx, s.admin, ResolveInput{ConflictID: conflictID})
	s.Require().NoError(err)
	s.True(resolved.Resolved)

	remaining, err := s.entries.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(remaining, 2, "an empty keep set closes the conflict without deleting")
}

func (s *ConflictServiceSuite) TestMarkAllRead() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.append(s.leader, id.StatusCalled, base)
	s.append(s.supervisor, id.StatusVoted, base.Add(time.Minute))
	s.Require().NoError(s.service.Detect(s.ctx, s.member))

	s.Require().NoError(s.service.MarkAllRead(s.ctx, s.admin))
	notifications, err := s.service.Notifications(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(notifications, 1)
	s.True(notifications[0].Read)
}
