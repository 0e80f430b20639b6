package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"canvass/internal/roster/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// PostgresStore is the PostgreSQL-backed MemberStore.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed member store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create stores a new member.
func (s *PostgresStore) Create(ctx context.Context, member *models.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, display_name, member_number, created_at)
		VALUES ($1, $2, $3, $4)
	`, member.ID.String(), member.DisplayName, member.MemberNumber, member.CreatedAt)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// FindByID returns the member or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	var (
		member models.Member
		rawID  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, member_number, created_at
		FROM members WHERE id = $1
	`, memberID.String()).Scan(&rawID, &member.DisplayName, &member.MemberNumber, &member.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	parsed, err := id.ParseMemberID(rawID)
	if err != nil {
		return nil, err
	}
	member.ID = parsed
	return &member, nil
}

// List returns every member in display name order.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, member_number, created_at
		FROM members ORDER BY display_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		var (
			member models.Member
			rawID  string
		)
		if err := rows.Scan(&rawID, &member.DisplayName, &member.MemberNumber, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		parsed, err := id.ParseMemberID(rawID)
		if err != nil {
			return nil, err
		}
		member.ID = parsed
		out = append(out, &member)
	}
	return out, rows.Err()
}

// FindByIDs returns the members present in the store, keyed by ID.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error) {
	if len(ids) == 0 {
		return map[id.MemberID]*models.Member{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, memberID := range ids {
		raw = append(raw, memberID.String())
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, member_number, created_at
		FROM members WHERE id = ANY($1)
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	defer rows.Close()

	out := make(map[id.MemberID]*models.Member, len(ids))
	for rows.Next() {
		var (
			member models.Member
			rawID  string
		)
		if err := rows.Scan(&rawID, &member.DisplayName, &member.MemberNumber, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		parsed, err := id.ParseMemberID(rawID)
		if err != nil {
			return nil, err
		}
		member.ID = parsed
		out[member.ID] = &member
	}
	return out, rows.Err()
}
