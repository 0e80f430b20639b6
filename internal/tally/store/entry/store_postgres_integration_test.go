//go:build integration

package entry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	rosterModels "canvass/internal/roster/models"
	actorStore "canvass/internal/roster/store/actor"
	"canvass/internal/tally"
	"canvass/internal/tally/store/entry"
	id "canvass/pkg/domain"
	"canvass/pkg/testutil/containers"
)

type PostgresEntryStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *entry.PostgresStore
	author   id.ActorID
}

func TestPostgresEntryStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresEntryStoreSuite))
}

func (s *PostgresEntryStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = entry.NewPostgres(s.postgres.DB)
}

func (s *PostgresEntryStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx,
		"conflict_notifications", "status_conflicts", "category_assignments",
		"status_entries", "categories", "members", "actors")
	s.Require().NoError(err)

	actor, err := rosterModels.NewActor("lena", id.RoleAdmin, nil)
	s.Require().NoError(err)
	s.Require().NoError(actorStore.NewPostgres(s.postgres.DB).Create(ctx, actor))
	s.author = actor.ID
}

func (s *PostgresEntryStoreSuite) newEntry(member id.MemberID, status id.Status) tally.StatusEntry {
	e, err := tally.NewStatusEntry(member, status, "", s.author, time.Now().UTC())
	s.Require().NoError(err)
	return e
}

func (s *PostgresEntryStoreSuite) TestAppendAssignsDatabaseSeq() {
	ctx := context.Background()
	member := id.NewMemberID()

	first, err := s.store.Append(ctx, s.newEntry(member, id.StatusChance))
	s.Require().NoError(err)
	second, err := s.store.Append(ctx, s.newEntry(member, id.StatusCalled))
	s.Require().NoError(err)

	s.NotZero(first.Seq)
	s.Greater(second.Seq, first.Seq)
}

func (s *PostgresEntryStoreSuite) TestListByMembersFilters() {
	ctx := context.Background()
	wanted := id.NewMemberID()
	other := id.NewMemberID()

	_, err := s.store.Append(ctx, s.newEntry(wanted, id.StatusChance))
	s.Require().NoError(err)
	_, err = s.store.Append(ctx, s.newEntry(other, id.StatusVoted))
	s.Require().NoError(err)

	entries, err := s.store.ListByMembers(ctx, []id.MemberID{wanted})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(wanted, entries[0].MemberID)
	s.Equal(id.StatusChance, entries[0].Status)
}

func (s *PostgresEntryStoreSuite) TestPurgeForResolution() {
	ctx := context.Background()
	member := id.NewMemberID()

	doomed, err := s.store.Append(ctx, s.newEntry(member, id.StatusChance))
	s.Require().NoError(err)
	kept, err := s.store.Append(ctx, s.newEntry(member, id.StatusVoted))
	s.Require().NoError(err)

	s.Require().NoError(s.store.PurgeForResolution(ctx, []id.EntryID{doomed.ID}))

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(kept.ID, all[0].ID)
}
