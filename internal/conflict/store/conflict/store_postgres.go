package conflict

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"canvass/internal/conflict/models"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
	"canvass/pkg/platform/tx"
)

// PostgresStore is the PostgreSQL-backed conflict store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed conflict store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create stores a new conflict. The partial unique index on open conflicts
// enforces at most one unresolved record per member.
func (s *PostgresStore) Create(ctx context.Context, c *models.StatusConflict) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_conflicts (id, member_id, status_ids, resolved, notes, created_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)
	`, c.ID.String(), c.MemberID.String(), pq.Array(entryIDStrings(c.StatusIDs)), c.Notes, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("create conflict: %w", err)
	}
	return nil
}

// FindByID returns the conflict or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, conflictID id.ConflictID) (*models.StatusConflict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, status_ids, resolved, resolved_by, resolved_at, notes, created_at
		FROM status_conflicts WHERE id = $1
	`, conflictID.String())
	c, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conflict: %w", err)
	}
	return c, nil
}

// FindOpenByMember returns the member's unresolved conflict, if any.
func (s *PostgresStore) FindOpenByMember(ctx context.Context, memberID id.MemberID) (*models.StatusConflict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, status_ids, resolved, resolved_by, resolved_at, notes, created_at
		FROM status_conflicts WHERE member_id = $1 AND NOT resolved
	`, memberID.String())
	c, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open conflict: %w", err)
	}
	return c, nil
}

// UpdateStatusIDs replaces the referenced entries of an open conflict.
func (s *PostgresStore) UpdateStatusIDs(ctx context.Context, conflictID id.ConflictID, statusIDs []id.EntryID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE status_conflicts SET status_ids = $2 WHERE id = $1 AND NOT resolved
	`, conflictID.String(), pq.Array(entryIDStrings(statusIDs)))
	if err != nil {
		return fmt.Errorf("update conflict entries: %w", err)
	}
	return s.checkAffected(ctx, res, conflictID)
}

// List returns conflicts, optionally filtered by resolved state, newest
// first.
func (s *PostgresStore) List(ctx context.Context, resolved *bool) ([]*models.StatusConflict, error) {
	query := `
		SELECT id, member_id, status_ids, resolved, resolved_by, resolved_at, notes, created_at
		FROM status_conflicts`
	args := []any{}
	if resolved != nil {
		query += ` WHERE resolved = $1`
		args = append(args, *resolved)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	var out []*models.StatusConflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkResolved flips the resolved flag, guarded by the resolved=false
// precondition. Honors a transaction placed in the context so resolution
// can commit the entry deletions and the flag together.
func (s *PostgresStore) MarkResolved(ctx context.Context, conflictID id.ConflictID, resolvedBy id.ActorID, resolvedAt time.Time, notes string) error {
	query := `
		UPDATE status_conflicts
		SET resolved = TRUE, resolved_by = $2, resolved_at = $3, notes = $4
		WHERE id = $1 AND NOT resolved
	`
	var (
		res sql.Result
		err error
	)
	if dbtx, ok := tx.From(ctx); ok {
		res, err = dbtx.ExecContext(ctx, query, conflictID.String(), resolvedBy.String(), resolvedAt, notes)
	} else {
		res, err = s.db.ExecContext(ctx, query, conflictID.String(), resolvedBy.String(), resolvedAt, notes)
	}
	if err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}
	return s.checkAffected(ctx, res, conflictID)
}

// checkAffected distinguishes "missing" from "already resolved" when a
// guarded update touched no rows.
func (s *PostgresStore) checkAffected(ctx context.Context, res sql.Result, conflictID id.ConflictID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.FindByID(ctx, conflictID); err != nil {
		return err
	}
	return sentinel.ErrAlreadyResolved
}

func entryIDStrings(ids []id.EntryID) []string {
	out := make([]string, 0, len(ids))
	for _, entryID := range ids {
		out = append(out, entryID.String())
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConflict(row rowScanner) (*models.StatusConflict, error) {
	var (
		c           models.StatusConflict
		rawID       string
		rawMember   string
		rawStatuses pq.StringArray
		rawBy       sql.NullString
		rawAt       sql.NullTime
	)
	if err := row.Scan(&rawID, &rawMember, &rawStatuses, &c.Resolved, &rawBy, &rawAt, &c.Notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	conflictID, err := id.ParseConflictID(rawID)
	if err != nil {
		return nil, err
	}
	memberID, err := id.ParseMemberID(rawMember)
	if err != nil {
		return nil, err
	}
	c.ID = conflictID
	c.MemberID = memberID
	c.StatusIDs = make([]id.EntryID, 0, len(rawStatuses))
	for _, raw := range rawStatuses {
		entryID, err := id.ParseEntryID(raw)
		if err != nil {
			return nil, err
		}
		c.StatusIDs = append(c.StatusIDs, entryID)
	}
	if rawBy.Valid {
		by, err := id.ParseActorID(rawBy.String)
		if err != nil {
			return nil, err
		}
		c.ResolvedBy = &by
	}
	if rawAt.Valid {
		at := rawAt.Time
		c.ResolvedAt = &at
	}
	return &c, nil
}
