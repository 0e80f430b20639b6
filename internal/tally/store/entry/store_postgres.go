package entry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"canvass/internal/tally"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/tx"
)

// PostgresStore is the PostgreSQL-backed status log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed status log.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append adds an immutable entry; the sequence comes from the identity
// column so the database owns the total log order.
func (s *PostgresStore) Append(ctx context.Context, e tally.StatusEntry) (tally.StatusEntry, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO status_entries (id, member_id, status, note, author_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`, e.ID.String(), e.MemberID.String(), e.Status.String(), e.Note, e.AuthorID.String(), e.RecordedAt).Scan(&e.Seq)
	if err != nil {
		return tally.StatusEntry{}, fmt.Errorf("append status entry: %w", err)
	}
	return e, nil
}

// ListAll returns the whole log in append order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]tally.StatusEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, status, note, author_id, recorded_at, seq
		FROM status_entries ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list status entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListByMembers returns the log entries for the given members.
func (s *PostgresStore) ListByMembers(ctx context.Context, memberIDs []id.MemberID) ([]tally.StatusEntry, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		raw = append(raw, memberID.String())
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, status, note, author_id, recorded_at, seq
		FROM status_entries WHERE member_id = ANY($1) ORDER BY seq
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list status entries by members: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// FindByIDs returns the entries with the given IDs; missing IDs are absent.
func (s *PostgresStore) FindByIDs(ctx context.Context, entryIDs []id.EntryID) ([]tally.StatusEntry, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(entryIDs))
	for _, entryID := range entryIDs {
		raw = append(raw, entryID.String())
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, status, note, author_id, recorded_at, seq
		FROM status_entries WHERE id = ANY($1) ORDER BY seq
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find status entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// PurgeForResolution permanently deletes the given entries. Honors a
// transaction placed in the context so conflict resolution can run the
// deletion and the resolved-flag update under one commit.
func (s *PostgresStore) PurgeForResolution(ctx context.Context, entryIDs []id.EntryID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	raw := make([]string, 0, len(entryIDs))
	for _, entryID := range entryIDs {
		raw = append(raw, entryID.String())
	}
	query := `DELETE FROM status_entries WHERE id = ANY($1)`
	var err error
	if dbtx, ok := tx.From(ctx); ok {
		_, err = dbtx.ExecContext(ctx, query, pq.Array(raw))
	} else {
		_, err = s.db.ExecContext(ctx, query, pq.Array(raw))
	}
	if err != nil {
		return fmt.Errorf("purge status entries: %w", err)
	}
	return nil
}

func collectEntries(rows *sql.Rows) ([]tally.StatusEntry, error) {
	var out []tally.StatusEntry
	for rows.Next() {
		var (
			e         tally.StatusEntry
			rawID     string
			rawMember string
			rawStatus string
			rawAuthor string
		)
		if err := rows.Scan(&rawID, &rawMember, &rawStatus, &e.Note, &rawAuthor, &e.RecordedAt, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan status entry: %w", err)
		}
		entryID, err := id.ParseEntryID(rawID)
		if err != nil {
			return nil, err
		}
		memberID, err := id.ParseMemberID(rawMember)
		if err != nil {
			return nil, err
		}
		authorID, err := id.ParseActorID(rawAuthor)
		if err != nil {
			return nil, err
		}
		e.ID = entryID
		e.MemberID = memberID
		e.Status = id.Status(rawStatus)
		e.AuthorID = authorID
		out = append(out, e)
	}
	return out, rows.Err()
}
