// Package domain holds typed identifiers and closed value sets shared across
// verticals. IDs are distinct types over uuid.UUID so the compiler rejects
// cross-type assignment (an ActorID can never be passed where a MemberID is
// expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "canvass/pkg/domain-errors"
)

// Typed identifiers for the tracked entities.
type (
	// ActorID identifies a person who can author status/category facts.
	ActorID uuid.UUID
	// MemberID identifies a tracked club member.
	MemberID uuid.UUID
	// EntryID identifies a single status log record.
	EntryID uuid.UUID
	// AssignmentID identifies a single category assignment record.
	AssignmentID uuid.UUID
	// CategoryID identifies an admin-defined category.
	CategoryID uuid.UUID
	// ConflictID identifies a status conflict record.
	ConflictID uuid.UUID
	// NotificationID identifies a conflict notification.
	NotificationID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// NewActorID returns a fresh random ActorID.
func NewActorID() ActorID { return ActorID(uuid.New()) }

// ParseActorID validates and returns an ActorID.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s)
	return ActorID(u), err
}

func (id ActorID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id ActorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form. Defined types do not
// inherit uuid.UUID's marshaling, so without this the IDs would serialize
// as raw byte arrays.
func (id ActorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the canonical UUID form.
func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := ParseActorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewMemberID returns a fresh random MemberID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// ParseMemberID validates and returns a MemberID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s)
	return MemberID(u), err
}

func (id MemberID) String() string { return uuid.UUID(id).String() }

func (id MemberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id MemberID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *MemberID) UnmarshalText(b []byte) error {
	parsed, err := ParseMemberID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewEntryID returns a fresh random EntryID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParseEntryID validates and returns an EntryID.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s)
	return EntryID(u), err
}

func (id EntryID) String() string { return uuid.UUID(id).String() }

func (id EntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id EntryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EntryID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewAssignmentID returns a fresh random AssignmentID.
func NewAssignmentID() AssignmentID { return AssignmentID(uuid.New()) }

// ParseAssignmentID validates and returns an AssignmentID.
func ParseAssignmentID(s string) (AssignmentID, error) {
	u, err := parseUUID(s)
	return AssignmentID(u), err
}

func (id AssignmentID) String() string { return uuid.UUID(id).String() }

func (id AssignmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// NewCategoryID returns a fresh random CategoryID.
func NewCategoryID() CategoryID { return CategoryID(uuid.New()) }

// ParseCategoryID validates and returns a CategoryID.
func ParseCategoryID(s string) (CategoryID, error) {
	u, err := parseUUID(s)
	return CategoryID(u), err
}

func (id CategoryID) String() string { return uuid.UUID(id).String() }

func (id CategoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CategoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CategoryID) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewConflictID returns a fresh random ConflictID.
func NewConflictID() ConflictID { return ConflictID(uuid.New()) }

// ParseConflictID validates and returns a ConflictID.
func ParseConflictID(s string) (ConflictID, error) {
	u, err := parseUUID(s)
	return ConflictID(u), err
}

func (id ConflictID) String() string { return uuid.UUID(id).String() }

func (id ConflictID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ConflictID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ConflictID) UnmarshalText(b []byte) error {
	parsed, err := ParseConflictID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewNotificationID returns a fresh random NotificationID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// ParseNotificationID validates and returns a NotificationID.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	return NotificationID(u), err
}

func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := ParseNotificationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
