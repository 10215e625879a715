package owner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the owner id is unknown.
var ErrNotFound = errors.New("owner not found")

// Repository persists owners.
type Repository interface {
	Create(ctx context.Context, o Owner) error
	Get(ctx context.Context, id string) (Owner, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed owner repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new owner record.
func (r *PostgresRepository) Create(ctx context.Context, o Owner) error {
	ownerID, err := uuid.Parse(o.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO owners (id, display_name, created_at)
        VALUES ($1, $2, $3)`, ownerID, o.DisplayName, o.CreatedAt.UTC())
	return err
}

// Get fetches an owner by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Owner, error) {
	ownerID, err := uuid.Parse(id)
	if err != nil {
		return Owner{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, display_name, created_at FROM owners WHERE id = $1`, ownerID)
	var (
		o         Owner
		idVal     uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&idVal, &o.DisplayName, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, ErrNotFound
		}
		return Owner{}, err
	}
	o.ID = idVal.String()
	o.CreatedAt = createdAt.UTC()
	return o, nil
}
