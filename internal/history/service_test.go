package history

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/bazaar-pay/bazaar_pay/internal/ledger"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

func seedDeposits(t *testing.T, store *ledger.InMemoryStore, walletID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		set := ledger.OperationSet{
			CorrelationID: uuid.NewString(),
			Entries:       []ledger.Entry{{WalletID: walletID, Amount: int64(i), Type: ledger.EntryDeposit}},
		}
		if _, err := store.Apply(context.Background(), set); err != nil {
			t.Fatalf("seed deposit %d: %v", i, err)
		}
	}
}

func TestListByWalletDefaultsPageSize(t *testing.T) {
	store := ledger.NewInMemory(0)
	svc := NewService(store)
	w := store.NewFundedWallet(uuid.NewString(), "USD", 0)
	seedDeposits(t, store, w.ID, 25)

	txs, err := svc.ListByWallet(context.Background(), w.ID, Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 20 {
		t.Fatalf("expected default page of 20, got %d", len(txs))
	}
	if txs[0].Amount != 25 {
		t.Fatalf("expected newest first, got amount %d", txs[0].Amount)
	}
}

func TestListByWalletCapsPageSize(t *testing.T) {
	store := ledger.NewInMemory(0)
	svc := NewService(store)
	w := store.NewFundedWallet(uuid.NewString(), "USD", 0)
	seedDeposits(t, store, w.ID, 105)

	txs, err := svc.ListByWallet(context.Background(), w.ID, Page{Limit: 500})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 100 {
		t.Fatalf("expected cap at 100, got %d", len(txs))
	}
}

func TestListByWalletOffset(t *testing.T) {
	store := ledger.NewInMemory(0)
	svc := NewService(store)
	w := store.NewFundedWallet(uuid.NewString(), "USD", 0)
	seedDeposits(t, store, w.ID, 5)

	txs, err := svc.ListByWallet(context.Background(), w.ID, Page{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 || txs[0].Amount != 2 || txs[1].Amount != 1 {
		t.Fatalf("unexpected page: %+v", txs)
	}
}

func TestListByWalletUnknownWallet(t *testing.T) {
	svc := NewService(ledger.NewInMemory(0))
	if _, err := svc.ListByWallet(context.Background(), uuid.NewString(), Page{}); !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
