package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"canvass/internal/tally"
	id "canvass/pkg/domain"
	"canvass/pkg/platform/sentinel"
)

// PostgresStore is the PostgreSQL-backed category table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed category table.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create stores a new category; the unique index on lower(name) enforces
// case-insensitive name uniqueness.
func (s *PostgresStore) Create(ctx context.Context, c *tally.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
	`, c.ID.String(), c.Name, c.Description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// FindByID returns the category with the given ID.
func (s *PostgresStore) FindByID(ctx context.Context, categoryID id.CategoryID) (*tally.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description FROM categories WHERE id = $1
	`, categoryID.String())
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// List returns all categories in name order.
func (s *PostgresStore) List(ctx context.Context) ([]*tally.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*tally.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*tally.Category, error) {
	var (
		c     tally.Category
		rawID string
	)
	if err := row.Scan(&rawID, &c.Name, &c.Description); err != nil {
		return nil, err
	}
	categoryID, err := id.ParseCategoryID(rawID)
	if err != nil {
		return nil, err
	}
	c.ID = categoryID
	return &c, nil
}
