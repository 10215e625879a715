package wallet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateCreateError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "wallets_owner_currency_active_idx"}
	if err := translateCreateError(dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := translateCreateError(fmt.Errorf("insert wallet: %w", dup)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for wrapped error, got %v", err)
	}

	other := &pgconn.PgError{Code: "23503"}
	if err := translateCreateError(other); errors.Is(err, ErrDuplicate) {
		t.Fatalf("unrelated SQLSTATE must pass through, got %v", err)
	}
	plain := errors.New("connection reset")
	if err := translateCreateError(plain); err != plain {
		t.Fatalf("non-pg error must pass through, got %v", err)
	}
}
