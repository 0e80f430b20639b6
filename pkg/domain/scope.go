package domain

// Scope is the set of actors whose entries are admissible for a caller.
// Summaries, batch lookups and conflict detection all resolve the log
// against a Scope; which actors it contains is the only thing a role
// changes.
type Scope map[ActorID]struct{}

// NewScope builds a scope from the given author IDs.
func NewScope(ids ...ActorID) Scope {
	s := make(Scope, len(ids))
	for _, actorID := range ids {
		s[actorID] = struct{}{}
	}
	return s
}

// Contains reports whether the author is admissible in this scope.
func (s Scope) Contains(actorID ActorID) bool {
	_, ok := s[actorID]
	return ok
}

// Add inserts an author into the scope.
func (s Scope) Add(actorID ActorID) {
	s[actorID] = struct{}{}
}

// Union returns a new scope containing the authors of both scopes.
func (s Scope) Union(other Scope) Scope {
	merged := make(Scope, len(s)+len(other))
	for actorID := range s {
		merged[actorID] = struct{}{}
	}
	for actorID := range other {
		merged[actorID] = struct{}{}
	}
	return merged
}

// IsEmpty reports whether no authors are admissible.
func (s Scope) IsEmpty() bool { return len(s) == 0 }
