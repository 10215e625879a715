package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// SQLSTATE codes the engine translates into sentinel errors.
const (
	codeLockNotAvailable = "55P03"
	codeUniqueViolation  = "23505"
)

// PostgresStore persists the ledger in PostgreSQL. Per-wallet serialization
// comes from row locks: every Apply selects its target wallet rows
// FOR UPDATE in ascending id order inside one transaction, so concurrent
// sets over the same wallets queue instead of deadlocking. Queueing is
// bounded by lockWait via lock_timeout.
type PostgresStore struct {
	db       *pgxpool.Pool
	lockWait time.Duration
}

var _ Engine = (*PostgresStore)(nil)

// NewPostgresStore builds a ledger engine backed by PostgreSQL. lockWait
// bounds how long Apply queues for contended wallet rows before failing
// with ErrLockTimeout.
func NewPostgresStore(db *pgxpool.Pool, lockWait time.Duration) *PostgresStore {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	return &PostgresStore{db: db, lockWait: lockWait}
}

const transactionColumns = `id, wallet_id, amount, type, correlation_id, counterparty, status, reference, created_at`

// Apply commits the operation set in a single database transaction.
func (s *PostgresStore) Apply(ctx context.Context, set OperationSet) ([]Transaction, error) {
	if err := validateSet(set); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Bound row-lock queueing for this transaction only. A hung transaction
	// holding a wallet row must fail us with a transient error, never stall
	// the request indefinitely.
	if _, err := tx.Exec(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockWait.Milliseconds())); err != nil {
		return nil, err
	}

	// Fast path: a committed key short-circuits before any lock is taken.
	prior, found, err := replayByKey(ctx, tx, set.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if found {
		return prior, ErrDuplicateOperation
	}

	ids := walletIDs(set)
	type lockedWallet struct {
		balance  int64
		currency string
		status   string
	}
	locked := make(map[string]lockedWallet, len(ids))
	for _, id := range ids {
		walletID, err := uuid.Parse(id)
		if err != nil {
			return nil, wallet.ErrNotFound
		}
		var lw lockedWallet
		err = tx.QueryRow(ctx, `SELECT balance, currency, status FROM wallets
            WHERE id = $1 FOR UPDATE`, walletID).Scan(&lw.balance, &lw.currency, &lw.status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, wallet.ErrNotFound
			}
			return nil, translateLockError(err)
		}
		locked[id] = lw
	}

	// Re-check the key now that the rows are locked: a concurrent retry may
	// have committed while this transaction queued on FOR UPDATE, and its
	// pre-lock lookup ran too early to see that.
	prior, found, err = replayByKey(ctx, tx, set.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if found {
		return prior, ErrDuplicateOperation
	}

	currencyCode := locked[ids[0]].currency
	for _, id := range ids {
		lw := locked[id]
		if lw.balance < 0 {
			return nil, ErrCorrupted
		}
		if lw.status != wallet.StatusActive {
			return nil, wallet.ErrInactive
		}
		if lw.currency != currencyCode {
			return nil, ErrCurrencyMismatch
		}
	}

	next := make(map[string]int64, len(ids))
	for _, id := range ids {
		next[id] = locked[id].balance
	}
	for _, e := range set.Entries {
		if e.Amount > 0 && next[e.WalletID] > math.MaxInt64-e.Amount {
			return nil, fmt.Errorf("%w: balance overflow on wallet %s", ErrInvalidSet, e.WalletID)
		}
		next[e.WalletID] += e.Amount
	}
	for _, id := range ids {
		if next[id] < 0 {
			return nil, ErrInsufficientFunds
		}
	}

	now := time.Now().UTC()
	txs := make([]Transaction, 0, len(set.Entries))
	for _, e := range set.Entries {
		record := Transaction{
			ID:            uuid.NewString(),
			WalletID:      e.WalletID,
			Amount:        e.Amount,
			Type:          e.Type,
			CorrelationID: set.CorrelationID,
			Counterparty:  e.Counterparty,
			Status:        StatusCompleted,
			Reference:     e.Reference,
			CreatedAt:     now,
		}
		if _, err := tx.Exec(ctx, `INSERT INTO transactions (`+transactionColumns+`)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			record.ID, record.WalletID, record.Amount, record.Type, record.CorrelationID,
			nullable(record.Counterparty), record.Status, nullable(record.Reference),
			record.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, record)
	}

	for _, id := range ids {
		if _, err := tx.Exec(ctx, `UPDATE wallets
            SET balance = $1, version = version + 1, updated_at = $2
            WHERE id = $3`, next[id], now, id); err != nil {
			return nil, err
		}
	}

	if set.IdempotencyKey != "" {
		if _, err := tx.Exec(ctx, `INSERT INTO ledger_keys (key, correlation_id, created_at)
            VALUES ($1, $2, $3)`, set.IdempotencyKey, set.CorrelationID, now); err != nil {
			// The key's unique index is the last line of defense: if another
			// transaction won the race anyway, abandon ours and replay the
			// winner's result.
			if isUniqueViolation(err) {
				_ = tx.Rollback(ctx)
				return s.replayCommitted(ctx, set.IdempotencyKey)
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return txs, nil
}

// Balance returns the committed balance for the wallet.
func (s *PostgresStore) Balance(ctx context.Context, walletID string) (int64, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return 0, wallet.ErrNotFound
	}
	var balance int64
	if err := s.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, wallet.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// ListByWallet returns the wallet's transactions newest-first.
func (s *PostgresStore) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, wallet.ErrNotFound
	}
	if _, err := s.Balance(ctx, walletID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		id, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListByCorrelation returns every leg of a compound operation.
func (s *PostgresStore) ListByCorrelation(ctx context.Context, correlationID string) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE correlation_id = $1 ORDER BY created_at, id`, correlationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// replayByKey looks up a committed idempotency key inside tx and loads the
// transactions it recorded. found is false when the key is empty or unknown.
func replayByKey(ctx context.Context, tx pgx.Tx, key string) ([]Transaction, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	var corrID string
	err := tx.QueryRow(ctx, `SELECT correlation_id FROM ledger_keys WHERE key = $1`, key).Scan(&corrID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rows, err := tx.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE correlation_id = $1 ORDER BY created_at, id`, corrID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, false, err
	}
	return txs, true, nil
}

// replayCommitted loads the result recorded under key by another transaction.
func (s *PostgresStore) replayCommitted(ctx context.Context, key string) ([]Transaction, error) {
	var corrID string
	if err := s.db.QueryRow(ctx, `SELECT correlation_id FROM ledger_keys WHERE key = $1`, key).Scan(&corrID); err != nil {
		return nil, err
	}
	prior, err := s.ListByCorrelation(ctx, corrID)
	if err != nil {
		return nil, err
	}
	return prior, ErrDuplicateOperation
}

// translateLockError maps a lock_timeout expiry to the transient sentinel.
func translateLockError(err error) error {
	if pgErrCode(err) == codeLockNotAvailable {
		return ErrLockTimeout
	}
	return err
}

func isUniqueViolation(err error) bool {
	return pgErrCode(err) == codeUniqueViolation
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txs []Transaction
	for rows.Next() {
		var (
			record       Transaction
			counterparty sql.NullString
			reference    sql.NullString
			createdAt    time.Time
		)
		if err := rows.Scan(&record.ID, &record.WalletID, &record.Amount, &record.Type,
			&record.CorrelationID, &counterparty, &record.Status, &reference, &createdAt); err != nil {
			return nil, err
		}
		record.Counterparty = counterparty.String
		record.Reference = reference.String
		record.CreatedAt = createdAt.UTC()
		txs = append(txs, record)
	}
	return txs, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
