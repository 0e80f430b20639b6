package tally

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "canvass/pkg/domain"
)

func assignmentAt(member id.MemberID, category id.CategoryID, author id.ActorID, at time.Time, seq uint64) CategoryAssignment {
	return CategoryAssignment{
		ID:         id.NewAssignmentID(),
		MemberID:   member,
		CategoryID: category,
		AuthorID:   author,
		RecordedAt: at,
		Seq:        seq,
	}
}

func TestSummarize(t *testing.T) {
	supervisor := id.NewActorID()
	leader := id.NewActorID()
	member := id.NewMemberID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty scope yields zero-filled summary", func(t *testing.T) {
		snap := &Snapshot{
			Entries: []StatusEntry{entryAt(member, leader, id.StatusVoted, base, 1)},
		}
		summary := Summarize(snap, id.NewScope())
		for _, status := range id.AllStatuses() {
			assert.Equal(t, 0, summary.Statuses[status])
		}
		assert.Empty(t, summary.Categories)
	})

	t.Run("all statuses present even at zero", func(t *testing.T) {
		snap := &Snapshot{
			Entries: []StatusEntry{entryAt(member, leader, id.StatusVoted, base, 1)},
		}
		summary := Summarize(snap, id.NewScope(leader))
		require.Len(t, summary.Statuses, len(id.AllStatuses()))
		assert.Equal(t, 1, summary.Statuses[id.StatusVoted])
		assert.Equal(t, 0, summary.Statuses[id.StatusChance])
	})

	t.Run("member without resolved category counts as uncategorized", func(t *testing.T) {
		snap := &Snapshot{
			Entries: []StatusEntry{entryAt(member, leader, id.StatusCalled, base, 1)},
		}
		summary := Summarize(snap, id.NewScope(leader))
		assert.Equal(t, 1, summary.Categories[id.UncategorizedLabel])
	})

	t.Run("category resolves within the same scope", func(t *testing.T) {
		categoryID := id.NewCategoryID()
		snap := &Snapshot{
			Entries: []StatusEntry{entryAt(member, leader, id.StatusCalled, base, 1)},
			Assignments: []CategoryAssignment{
				assignmentAt(member, categoryID, supervisor, base, 1),
				assignmentAt(member, categoryID, leader, base.Add(time.Minute), 2),
			},
			CategoryNames: map[id.CategoryID]string{categoryID: "core voters"},
		}

		leaderOnly := Summarize(snap, id.NewScope(leader))
		assert.Equal(t, 1, leaderOnly.Categories["core voters"])
		assert.Equal(t, 0, leaderOnly.Categories[id.UncategorizedLabel])
	})

	// A supervisor records chance at T1, the leader records voted at T2.
	// The leader's own scope and the union scope agree here, but the
	// supervisor's self scope still sees chance: summing self and perLeader
	// counts would count this member twice under different statuses, which
	// is why the grand total is computed from the union scope instead.
	t.Run("cross-scope counts are not additive", func(t *testing.T) {
		snap := &Snapshot{
			Entries: []StatusEntry{
				entryAt(member, supervisor, id.StatusChance, base, 1),
				entryAt(member, leader, id.StatusVoted, base.Add(time.Hour), 2),
			},
		}

		self := Summarize(snap, id.NewScope(supervisor))
		perLeader := Summarize(snap, id.NewScope(leader))
		union := Summarize(snap, id.NewScope(supervisor, leader))

		assert.Equal(t, 1, self.Statuses[id.StatusChance])
		assert.Equal(t, 1, perLeader.Statuses[id.StatusVoted])

		assert.Equal(t, 0, union.Statuses[id.StatusChance])
		assert.Equal(t, 1, union.Statuses[id.StatusVoted])

		countMembers := func(s Summary) int {
			total := 0
			for _, n := range s.Statuses {
				total += n
			}
			return total
		}
		assert.Equal(t, 2, countMembers(self)+countMembers(perLeader),
			"summing sub-scopes double counts the member")
		assert.Equal(t, 1, countMembers(union), "union counts each member once")
	})
}
