package ledger

import (
	"context"
	"errors"
	"time"
)

// EntryType enumerates the closed set of ledger entry kinds. The shape rule
// for each kind lives in validate.go; a new kind must be added to both.
type EntryType string

const (
	EntryDeposit     EntryType = "deposit"
	EntryWithdrawal  EntryType = "withdrawal"
	EntryTransferOut EntryType = "transfer_out"
	EntryTransferIn  EntryType = "transfer_in"
	EntryCashback    EntryType = "cashback"
	EntryFee         EntryType = "fee"
)

// Valid reports whether t names a known entry kind.
func (t EntryType) Valid() bool {
	switch t {
	case EntryDeposit, EntryWithdrawal, EntryTransferOut, EntryTransferIn, EntryCashback, EntryFee:
		return true
	}
	return false
}

// Transaction statuses. Committed records are always completed; failed sets
// leave no records at all.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	// ErrInsufficientFunds occurs when a debit would take a wallet below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCurrencyMismatch occurs when an operation set spans currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidSet indicates a malformed operation set, rejected before any
	// lock is taken.
	ErrInvalidSet = errors.New("invalid operation set")

	// ErrDuplicateOperation indicates the idempotency key was already
	// committed; the previously recorded transactions accompany the error.
	ErrDuplicateOperation = errors.New("duplicate operation")

	// ErrLockTimeout indicates wallet locks could not be acquired within the
	// configured deadline. Transient; safe to retry with backoff.
	ErrLockTimeout = errors.New("wallet lock timeout")

	// ErrCorrupted indicates a committed balance violated an invariant.
	// Writes to the affected wallet halt pending manual reconciliation.
	ErrCorrupted = errors.New("ledger corrupted")
)

// Entry is one signed minor-unit balance delta inside an operation set.
type Entry struct {
	WalletID     string
	Amount       int64 // signed, minor units
	Type         EntryType
	Counterparty string // wallet on the other side of a transfer leg
	Reference    string
}

// OperationSet groups the entries of one logical operation under a single
// correlation id. The whole set commits atomically or not at all.
type OperationSet struct {
	CorrelationID  string
	IdempotencyKey string // optional; callers scope it per operation kind
	Entries        []Entry
}

// Transaction is one committed, immutable ledger record. Corrections are
// new reversing transactions, never edits.
type Transaction struct {
	ID            string
	WalletID      string
	Amount        int64
	Type          EntryType
	CorrelationID string
	Counterparty  string
	Status        string
	Reference     string
	CreatedAt     time.Time
}

// Reader exposes lock-free queries over committed state. Readers observe
// either the pre- or the fully post-state of an in-flight set, never an
// intermediate one.
type Reader interface {
	Balance(ctx context.Context, walletID string) (int64, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error)
	ListByCorrelation(ctx context.Context, correlationID string) ([]Transaction, error)
}

// Engine applies operation sets. Apply validates the set shape, serializes
// access to every target wallet, enforces the balance and activity
// invariants, and commits balance changes together with their transaction
// records — or returns an error leaving no trace. A set whose idempotency
// key was already committed yields the prior transactions and
// ErrDuplicateOperation.
type Engine interface {
	Apply(ctx context.Context, set OperationSet) ([]Transaction, error)
	Reader
}
