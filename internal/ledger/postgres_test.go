package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateLockError(t *testing.T) {
	lockErr := &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}

	if err := translateLockError(lockErr); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	// Wrapped errors translate too.
	wrapped := fmt.Errorf("query wallets: %w", lockErr)
	if err := translateLockError(wrapped); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout for wrapped error, got %v", err)
	}

	other := &pgconn.PgError{Code: "23503"}
	if err := translateLockError(other); errors.Is(err, ErrLockTimeout) {
		t.Fatalf("unrelated SQLSTATE must pass through, got %v", err)
	}
	plain := errors.New("connection reset")
	if err := translateLockError(plain); err != plain {
		t.Fatalf("non-pg error must pass through, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "ledger_keys_pkey"}
	if !isUniqueViolation(fmt.Errorf("insert key: %w", dup)) {
		t.Fatal("expected unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "55P03"}) {
		t.Fatal("lock timeout is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatal("non-pg error is not a unique violation")
	}
}
