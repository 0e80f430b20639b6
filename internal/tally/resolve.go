package tally

import (
	"time"

	id "canvass/pkg/domain"
)

// Fact is any immutable (member, author, timestamp, seq) log record. Both
// StatusEntry and CategoryAssignment satisfy it, so one resolver serves both
// logs.
type Fact interface {
	FactMember() id.MemberID
	FactAuthor() id.ActorID
	FactTime() time.Time
	FactSeq() uint64
}

// newer reports whether a should win over b under latest-wins: later
// timestamp wins, equal timestamps fall back to append order. The tie-break
// makes resolution deterministic for any input order.
func newer(aTime time.Time, aSeq uint64, bTime time.Time, bSeq uint64) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aSeq > bSeq
}

// ResolveLatest picks the single current fact per member from the facts
// whose author is in scope. Members with no admissible facts are absent
// from the result. One linear pass over the input.
func ResolveLatest[F Fact](facts []F, scope id.Scope) map[id.MemberID]F {
	current := make(map[id.MemberID]F)
	for _, fact := range facts {
		if !scope.Contains(fact.FactAuthor()) {
			continue
		}
		memberID := fact.FactMember()
		best, ok := current[memberID]
		if !ok || newer(fact.FactTime(), fact.FactSeq(), best.FactTime(), best.FactSeq()) {
			current[memberID] = fact
		}
	}
	return current
}

// ResolvePerAuthor picks, for every member, each in-scope author's own
// current fact. Conflict detection works on this view: a member is
// conflicted when two authors' current facts disagree.
func ResolvePerAuthor[F Fact](facts []F, scope id.Scope) map[id.MemberID]map[id.ActorID]F {
	current := make(map[id.MemberID]map[id.ActorID]F)
	for _, fact := range facts {
		author := fact.FactAuthor()
		if !scope.Contains(author) {
			continue
		}
		memberID := fact.FactMember()
		perAuthor, ok := current[memberID]
		if !ok {
			perAuthor = make(map[id.ActorID]F)
			current[memberID] = perAuthor
		}
		best, ok := perAuthor[author]
		if !ok || newer(fact.FactTime(), fact.FactSeq(), best.FactTime(), best.FactSeq()) {
			perAuthor[author] = fact
		}
	}
	return current
}
