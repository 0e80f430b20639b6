package actor

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

// PostgresStore is the PostgreSQL-backed ActorStore.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed actor store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create stores a new actor.
func (s *PostgresStore) Create(ctx context.Context, actor *models.Actor) error {
	var supervisorID any
	if actor.SupervisorID != nil {
		supervisorID = actor.SupervisorID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actors (id, name, role, supervisor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, actor.ID.String(), actor.Name, actor.Role.String(), supervisorID, actor.CreatedAt)
	if err != nil {
		return fmt.Errorf("create actor: %w", err)
	}
	return nil
}

// FindByID returns the actor or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, supervisor_id, created_at
		FROM actors WHERE id = $1
	`, actorID.String())
	actor, err := scanActor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find actor: %w", err)
	}
	return actor, nil
}

// FindByIDs returns the actors present in the store, keyed by ID.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.ActorID) (map[id.ActorID]*models.Actor, error) {
	if len(ids) == 0 {
		return map[id.ActorID]*models.Actor{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, actorID := range ids {
		raw = append(raw, actorID.String())
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, supervisor_id, created_at
		FROM actors WHERE id = ANY($1)
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find actors: %w", err)
	}
	defer rows.Close()

	out := make(map[id.ActorID]*models.Actor, len(ids))
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		out[actor.ID] = actor
	}
	return out, rows.Err()
}

// List returns every actor.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Actor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, supervisor_id, created_at FROM actors
	`)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()
	return collectActors(rows)
}

// ListByRole returns every actor holding the given role.
func (s *PostgresStore) ListByRole(ctx context.Context, role id.Role) ([]*models.Actor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, supervisor_id, created_at
		FROM actors WHERE role = $1
	`, role.String())
	if err != nil {
		return nil, fmt.Errorf("list actors by role: %w", err)
	}
	defer rows.Close()
	return collectActors(rows)
}

// ListBySupervisor returns the team leaders reporting to the supervisor.
func (s *PostgresStore) ListBySupervisor(ctx context.Context, supervisorID id.ActorID) ([]*models.Actor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, supervisor_id, created_at
		FROM actors WHERE supervisor_id = $1
	`, supervisorID.String())
	if err != nil {
		return nil, fmt.Errorf("list actors by supervisor: %w", err)
	}
	defer rows.Close()
	return collectActors(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*models.Actor, error) {
	var (
		actor         models.Actor
		rawID         string
		rawRole       string
		rawSupervisor sql.NullString
	)
	if err := row.Scan(&rawID, &actor.Name, &rawRole, &rawSupervisor, &actor.CreatedAt); err != nil {
		return nil, err
	}
	actorID, err := id.ParseActorID(rawID)
	if err != nil {
		return nil, err
	}
	actor.ID = actorID
	actor.Role = id.Role(rawRole)
	if rawSupervisor.Valid {
		supervisorID, err := id.ParseActorID(rawSupervisor.String)
		if err != nil {
			return nil, err
		}
		actor.SupervisorID = &supervisorID
	}
	return &actor, nil
}

func collectActors(rows *sql.Rows) ([]*models.Actor, error) {
	var out []*models.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		out = append(out, actor)
	}
	return out, rows.Err()
}
