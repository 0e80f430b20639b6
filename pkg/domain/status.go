package domain

import (
	dErrors "canvass/pkg/domain-errors"
)

// Status is the closed set of canvassing states a member moves through.
// Summaries always report every status, including zero counts, so the set
// and its order are fixed here.
type Status string

const (
	StatusChance   Status = "chance"
	StatusCalled   Status = "called"
	StatusWillVote Status = "will_vote"
	StatusSureVote Status = "sure_vote"
	StatusVoted    Status = "voted"
)

// AllStatuses returns every recognized status in reporting order.
// Callers must not mutate the returned slice.
func AllStatuses() []Status {
	return []Status{StatusChance, StatusCalled, StatusWillVote, StatusSureVote, StatusVoted}
}

// ParseStatus validates and returns a Status.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status: "+s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusChance, StatusCalled, StatusWillVote, StatusSureVote, StatusVoted:
		return true
	}
	return false
}

// String returns the string representation.
func (s Status) String() string { return string(s) }

// UncategorizedLabel is the sentinel category name used when a member has a
// resolved status in scope but no category assignment resolves for them.
const UncategorizedLabel = "uncategorized"
