package tally

import (
	id "canvass/pkg/domain"
)

// StatusCounts is a dense count-by-status mapping: every recognized status
// is present, zero-filled, so clients never have to distinguish "absent"
// from "zero".
type StatusCounts map[id.Status]int

// NewStatusCounts returns a zero-filled dense status count mapping.
func NewStatusCounts() StatusCounts {
	counts := make(StatusCounts, len(id.AllStatuses()))
	for _, status := range id.AllStatuses() {
		counts[status] = 0
	}
	return counts
}

// CategoryCounts is a sparse count-by-category-name mapping. Members whose
// current status resolves but whose category does not are counted under the
// uncategorized sentinel.
type CategoryCounts map[string]int

// Summary is one scope's rollup.
type Summary struct {
	Statuses   StatusCounts   `json:"statuses"`
	Categories CategoryCounts `json:"categories"`
}

// Snapshot is one consistent read of both fact logs plus the category name
// table. Every derived scope of a request resolves against the same
// snapshot, so the self/leader/total summaries can never disagree about
// which facts exist. Snapshots are fetched once and passed by reference;
// they are never re-fetched mid-request.
type Snapshot struct {
	Entries       []StatusEntry
	Assignments   []CategoryAssignment
	CategoryNames map[id.CategoryID]string
}

// Summarize rolls up the snapshot for one scope. The member set is the set
// of members with a current status entry in scope; each such member's
// category resolves against the same scope, defaulting to the uncategorized
// sentinel.
//
// Counts are per current value as seen by this scope's audience. Summaries
// for different scopes over the same snapshot are intentionally not
// additive: the union scope may resolve a different winning entry for a
// member than either sub-scope alone.
func Summarize(snap *Snapshot, scope id.Scope) Summary {
	summary := Summary{
		Statuses:   NewStatusCounts(),
		Categories: CategoryCounts{},
	}
	if scope.IsEmpty() {
		return summary
	}

	currentStatus := ResolveLatest(snap.Entries, scope)
	if len(currentStatus) == 0 {
		return summary
	}
	currentCategory := ResolveLatest(snap.Assignments, scope)

	for memberID, entry := range currentStatus {
		summary.Statuses[entry.Status]++

		label := id.UncategorizedLabel
		if assignment, ok := currentCategory[memberID]; ok {
			if name, ok := snap.CategoryNames[assignment.CategoryID]; ok {
				label = name
			}
		}
		summary.Categories[label]++
	}
	return summary
}
