package assignment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"canvass/internal/tally"
	id "canvass/pkg/domain"
)

// PostgresStore is the PostgreSQL-backed assignment log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed assignment log.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append adds an immutable assignment; the sequence comes from the identity
// column.
func (s *PostgresStore) Append(ctx context.Context, a tally.CategoryAssignment) (tally.CategoryAssignment, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO category_assignments (id, member_id, category_id, author_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`, a.ID.String(), a.MemberID.String(), a.CategoryID.String(), a.AuthorID.String(), a.RecordedAt).Scan(&a.Seq)
	if err != nil {
		return tally.CategoryAssignment{}, fmt.Errorf("append category assignment: %w", err)
	}
	return a, nil
}

// ListAll returns the whole log in append order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]tally.CategoryAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, category_id, author_id, recorded_at, seq
		FROM category_assignments ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list category assignments: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListByMembers returns the log entries for the given members.
func (s *PostgresStore) ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.CategoryAssignment, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		raw = append(raw, memberID.String())
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, category_id, author_id, recorded_at, seq
		FROM category_assignments WHERE member_id = ANY($1) ORDER BY seq
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list category assignments by members: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]tally.CategoryAssignment, error) {
	var out []tally.CategoryAssignment
	for rows.Next() {
		var (
			a           tally.CategoryAssignment
			rawID       string
			rawMember   string
			rawCategory string
			rawAuthor   string
		)
		if err := rows.Scan(&rawID, &rawMember, &rawCategory, &rawAuthor, &a.RecordedAt, &a.Seq); err != nil {
			return nil, fmt.Errorf("scan category assignment: %w", err)
		}
		assignmentID, err := id.ParseAssignmentID(rawID)
		if err != nil {
			return nil, err
		}
		memberID, err := id.ParseMemberID(rawMember)
		if err != nil {
			return nil, err
		}
		categoryID, err := id.ParseCategoryID(rawCategory)
		if err != nil {
			return nil, err
		}
		authorID, err := id.ParseActorID(rawAuthor)
		if err != nil {
			return nil, err
		}
		a.ID = assignmentID
		a.MemberID = memberID
		a.CategoryID = categoryID
		a.AuthorID = authorID
		out = append(out, a)
	}
	return out, rows.Err()
}
