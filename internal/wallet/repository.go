package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the wallet id is unknown.
	ErrNotFound = errors.New("wallet not found")
	// ErrInactive indicates the wallet no longer accepts operations.
	ErrInactive = errors.New("wallet inactive")
	// ErrDuplicate indicates an active wallet already exists for the
	// (owner, currency) pair.
	ErrDuplicate = errors.New("duplicate wallet")
)

// Repository persists wallet identity. Balance mutation is not part of this
// contract; it belongs to the ledger engine.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error)
	Deactivate(ctx context.Context, id string) error
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const walletColumns = `id, owner_id, currency, class, balance, status, version, created_at, updated_at`

// Create inserts a wallet record, enforcing one active wallet per
// (owner, currency) pair. The EXISTS probe gives concurrent creates a clean
// rejection most of the time; the partial unique index on
// (owner_id, currency) WHERE status = 'active' is what actually closes the
// race, surfacing as ErrDuplicate when two inserts collide.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(w.OwnerID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (
        SELECT 1 FROM wallets WHERE owner_id = $1 AND currency = $2 AND status = $3)`,
		ownerID, w.Currency, StatusActive).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}

	if _, err := tx.Exec(ctx, `INSERT INTO wallets (`+walletColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		walletID, ownerID, w.Currency, w.Class, w.Balance, w.Status, w.Version,
		w.CreatedAt.UTC(), w.UpdatedAt.UTC()); err != nil {
		return translateCreateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateCreateError(err)
	}
	return nil
}

// translateCreateError maps a unique-index violation on the active
// (owner, currency) pair to the duplicate sentinel.
func translateCreateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// Get fetches a wallet by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

// ListByOwner returns every wallet held by the owner, active or not.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+walletColumns+`
        FROM wallets WHERE owner_id = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Deactivate flips an active wallet to inactive. The row is never deleted.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE wallets SET status = $1, updated_at = $2
        WHERE id = $3 AND status = $4`, StatusInactive, time.Now().UTC(), walletID, StatusActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrInactive
	}
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		idVal     uuid.UUID
		ownerID   uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&idVal, &ownerID, &w.Currency, &w.Class, &w.Balance,
		&w.Status, &w.Version, &createdAt, &updatedAt); err != nil {
		return Wallet{}, err
	}
	w.ID = idVal.String()
	w.OwnerID = ownerID.String()
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
