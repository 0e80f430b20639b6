// Package tally implements the append-only fact log and the pure resolution
// and aggregation logic over it.
//
// The design is an explicit two-layer split: stores only append and read
// immutable facts; deciding which fact is "current" is a pure function over
// a slice of facts plus an author scope. That keeps the latest-wins policy
// and its tie-break rule testable without any storage.
package tally

import (
	"time"

	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
)

// StatusEntry is an immutable status fact. Entries are never mutated;
// the sole sanctioned deletion is conflict resolution (PurgeForResolution).
type StatusEntry struct {
	ID         id.EntryID  `json:"id"`
	MemberID   id.MemberID `json:"member_id"`
	Status     id.Status   `json:"status"`
	Note       string      `json:"note,omitempty"`
	AuthorID   id.ActorID  `json:"author_id"`
	RecordedAt time.Time   `json:"recorded_at"`
	// Seq is assigned by the store on append and totally orders the log;
	// latest-wins breaks equal-timestamp ties on it.
	Seq uint64 `json:"-"`
}

// NewStatusEntry creates a StatusEntry with domain invariant validation.
// Seq is zero until the store appends the entry.
func NewStatusEntry(memberID id.MemberID, status id.Status, note string, authorID id.ActorID, recordedAt time.Time) (StatusEntry, error) {
	if memberID.IsNil() {
		return StatusEntry{}, dErrors.New(dErrors.CodeInvalidInput, "member reference cannot be empty")
	}
	if !status.IsValid() {
		return StatusEntry{}, dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	if authorID.IsNil() {
		return StatusEntry{}, dErrors.New(dErrors.CodeInvalidInput, "author reference cannot be empty")
	}
	return StatusEntry{
		ID:         id.NewEntryID(),
		MemberID:   memberID,
		Status:     status,
		Note:       note,
		AuthorID:   authorID,
		RecordedAt: recordedAt,
	}, nil
}

// FactMember implements Fact.
func (e StatusEntry) FactMember() id.MemberID { return e.MemberID }

// FactAuthor implements Fact.
func (e StatusEntry) FactAuthor() id.ActorID { return e.AuthorID }

// FactTime implements Fact.
func (e StatusEntry) FactTime() time.Time { return e.RecordedAt }

// FactSeq implements Fact.
func (e StatusEntry) FactSeq() uint64 { return e.Seq }

// CategoryAssignment is an immutable category fact with the same
// latest-wins semantics as StatusEntry, over the open category domain.
type CategoryAssignment struct {
	ID         id.AssignmentID `json:"id"`
	MemberID   id.MemberID     `json:"member_id"`
	CategoryID id.CategoryID   `json:"category_id"`
	AuthorID   id.ActorID      `json:"author_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Seq        uint64          `json:"-"`
}

// NewCategoryAssignment creates a CategoryAssignment with domain invariant
// validation.
func NewCategoryAssignment(memberID id.MemberID, categoryID id.CategoryID, authorID id.ActorID, recordedAt time.Time) (CategoryAssignment, error) {
	if memberID.IsNil() {
		return CategoryAssignment{}, dErrors.New(dErrors.CodeInvalidInput, "member reference cannot be empty")
	}
	if categoryID.IsNil() {
		return CategoryAssignment{}, dErrors.New(dErrors.CodeInvalidInput, "category reference cannot be empty")
	}
	if authorID.IsNil() {
		return CategoryAssignment{}, dErrors.New(dErrors.CodeInvalidInput, "author reference cannot be empty")
	}
	return CategoryAssignment{
		ID:         id.NewAssignmentID(),
		MemberID:   memberID,
		CategoryID: categoryID,
		AuthorID:   authorID,
		RecordedAt: recordedAt,
	}, nil
}

// FactMember implements Fact.
func (a CategoryAssignment) FactMember() id.MemberID { return a.MemberID }

// FactAuthor implements Fact.
func (a CategoryAssignment) FactAuthor() id.ActorID { return a.AuthorID }

// FactTime implements Fact.
func (a CategoryAssignment) FactTime() time.Time { return a.RecordedAt }

// FactSeq implements Fact.
func (a CategoryAssignment) FactSeq() uint64 { return a.Seq }

// Category is an admin-defined label; the category domain is open, unlike
// the closed status set.
type Category struct {
	ID          id.CategoryID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
}

// NewCategory creates a Category with domain invariant validation.
func NewCategory(name, description string) (*Category, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "category name cannot be empty")
	}
	return &Category{
		ID:          id.NewCategoryID(),
		Name:        name,
		Description: description,
	}, nil
}
