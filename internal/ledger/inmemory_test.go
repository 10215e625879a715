package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

func newTestStore() *InMemoryStore {
	return NewInMemory(2 * time.Second)
}

func depositSet(walletID string, amount int64) OperationSet {
	return OperationSet{
		CorrelationID: uuid.NewString(),
		Entries:       []Entry{{WalletID: walletID, Amount: amount, Type: EntryDeposit}},
	}
}

func TestApplyDeposit(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 0)

	set := depositSet(w.ID, 500)
	txs, err := s.Apply(ctx, set)
	if err != nil {
		t.Fatalf("apply deposit: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != 500 || txs[0].Status != StatusCompleted {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
	if txs[0].CorrelationID != set.CorrelationID {
		t.Fatalf("correlation id not propagated")
	}

	balance, err := s.Balance(ctx, w.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected balance 500, got %d", balance)
	}
}

func TestApplyWithdrawalWithFee(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 10_000)

	set := OperationSet{
		CorrelationID: uuid.NewString(),
		Entries: []Entry{
			{WalletID: w.ID, Amount: -2000, Type: EntryWithdrawal},
			{WalletID: w.ID, Amount: -10, Type: EntryFee},
		},
	}
	txs, err := s.Apply(ctx, set)
	if err != nil {
		t.Fatalf("apply withdrawal: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.CorrelationID != set.CorrelationID {
			t.Fatalf("legs do not share a correlation id")
		}
	}

	balance, _ := s.Balance(ctx, w.ID)
	if balance != 7990 {
		t.Fatalf("expected balance 7990, got %d", balance)
	}

	legs, err := s.ListByCorrelation(ctx, set.CorrelationID)
	if err != nil {
		t.Fatalf("list by correlation: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}
}

func TestApplyInsufficientFundsLeavesNoTrace(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 100)
	initial, _ := s.Get(ctx, w.ID)

	set := OperationSet{
		CorrelationID: uuid.NewString(),
		Entries:       []Entry{{WalletID: w.ID, Amount: -200, Type: EntryWithdrawal}},
	}
	if _, err := s.Apply(ctx, set); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	after, _ := s.Get(ctx, w.ID)
	if after.Balance != 100 || after.Version != initial.Version {
		t.Fatalf("failed set mutated the wallet: %+v", after)
	}
	txs, _ := s.ListByWallet(ctx, w.ID, 10, 0)
	if len(txs) != 0 {
		t.Fatalf("failed set left %d transactions", len(txs))
	}
}

func TestApplyInactiveWalletRejected(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 1000)

	if err := s.Deactivate(ctx, w.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := s.Apply(ctx, depositSet(w.ID, 100)); !errors.Is(err, wallet.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestApplyUnknownWallet(t *testing.T) {
	s := newTestStore()
	if _, err := s.Apply(context.Background(), depositSet(uuid.NewString(), 100)); !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyCurrencyMismatch(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	usd := s.NewFundedWallet(uuid.NewString(), "USD", 1000)
	eur := s.NewFundedWallet(uuid.NewString(), "EUR", 0)

	set := OperationSet{
		CorrelationID: uuid.NewString(),
		Entries: []Entry{
			{WalletID: usd.ID, Amount: -500, Type: EntryTransferOut, Counterparty: eur.ID},
			{WalletID: eur.ID, Amount: 500, Type: EntryTransferIn, Counterparty: usd.ID},
		},
	}
	if _, err := s.Apply(ctx, set); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	balance, _ := s.Balance(ctx, usd.ID)
	if balance != 1000 {
		t.Fatalf("rejected transfer mutated balance: %d", balance)
	}
}

func TestApplyDuplicateKeyReplays(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 1000)

	set := OperationSet{
		CorrelationID:  uuid.NewString(),
		IdempotencyKey: "withdraw:" + uuid.NewString(),
		Entries:        []Entry{{WalletID: w.ID, Amount: -300, Type: EntryWithdrawal}},
	}
	first, err := s.Apply(ctx, set)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}

	retry := set
	retry.CorrelationID = uuid.NewString() // a retry carries a fresh correlation id
	second, err := s.Apply(ctx, retry)
	if !errors.Is(err, ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}
	if len(second) != len(first) || second[0].ID != first[0].ID {
		t.Fatalf("replay returned different transactions")
	}

	balance, _ := s.Balance(ctx, w.ID)
	if balance != 700 {
		t.Fatalf("duplicate key debited twice: balance %d", balance)
	}
}

func TestApplyRejectsBalanceOverflow(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", math.MaxInt64-10)

	if _, err := s.Apply(ctx, depositSet(w.ID, 100)); !errors.Is(err, ErrInvalidSet) {
		t.Fatalf("expected ErrInvalidSet on overflow, got %v", err)
	}
	balance, _ := s.Balance(ctx, w.ID)
	if balance != math.MaxInt64-10 {
		t.Fatalf("overflowing deposit mutated the balance: %d", balance)
	}

	// Right at the ceiling still works.
	if _, err := s.Apply(ctx, depositSet(w.ID, 10)); err != nil {
		t.Fatalf("deposit to ceiling: %v", err)
	}
}

func TestApplyConcurrentSameKeyAppliesOnce(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 1000)
	key := "withdraw:" + uuid.NewString()

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstID string
		commits int
		replays int
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			set := OperationSet{
				CorrelationID:  uuid.NewString(),
				IdempotencyKey: key,
				Entries:        []Entry{{WalletID: w.ID, Amount: -300, Type: EntryWithdrawal}},
			}
			txs, err := s.Apply(ctx, set)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				commits++
			case errors.Is(err, ErrDuplicateOperation):
				replays++
			default:
				t.Errorf("unexpected error: %v", err)
				return
			}
			if len(txs) != 1 {
				t.Errorf("expected 1 transaction, got %d", len(txs))
				return
			}
			if firstID == "" {
				firstID = txs[0].ID
			} else if txs[0].ID != firstID {
				t.Errorf("callers saw different transactions: %s vs %s", firstID, txs[0].ID)
			}
		}()
	}
	wg.Wait()

	if commits != 1 || replays != callers-1 {
		t.Fatalf("expected 1 commit and %d replays, got %d/%d", callers-1, commits, replays)
	}
	balance, _ := s.Balance(ctx, w.ID)
	if balance != 700 {
		t.Fatalf("key raced into multiple effects: balance %d", balance)
	}
}

func TestApplyConcurrentOppositeTransfers(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	a := s.NewFundedWallet(uuid.NewString(), "USD", 10_000)
	b := s.NewFundedWallet(uuid.NewString(), "USD", 10_000)

	transfer := func(from, to string, amount int64) OperationSet {
		return OperationSet{
			CorrelationID: uuid.NewString(),
			Entries: []Entry{
				{WalletID: from, Amount: -amount, Type: EntryTransferOut, Counterparty: to},
				{WalletID: to, Amount: amount, Type: EntryTransferIn, Counterparty: from},
			},
		}
	}

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := s.Apply(ctx, transfer(a.ID, b.ID, 10)); err != nil {
				t.Errorf("a->b: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := s.Apply(ctx, transfer(b.ID, a.ID, 10)); err != nil {
				t.Errorf("b->a: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	balA, _ := s.Balance(ctx, a.ID)
	balB, _ := s.Balance(ctx, b.ID)
	if balA+balB != 20_000 {
		t.Fatalf("funds not conserved: %d + %d", balA, balB)
	}
	if balA != 10_000 || balB != 10_000 {
		t.Fatalf("opposite transfers should cancel: a=%d b=%d", balA, balB)
	}
}

func TestApplyLockTimeout(t *testing.T) {
	s := NewInMemory(50 * time.Millisecond)
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 1000)

	s.mu.RLock()
	st := s.wallets[w.ID]
	s.mu.RUnlock()

	st.lock <- struct{}{} // hold the wallet lock
	defer func() { <-st.lock }()

	if _, err := s.Apply(ctx, depositSet(w.ID, 100)); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestApplyHaltsCorruptedWallet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 1000)
	s.CorruptBalance(w.ID, -50)

	if _, err := s.Apply(ctx, depositSet(w.ID, 100)); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
	// The wallet stays halted even for otherwise valid operations.
	if _, err := s.Apply(ctx, depositSet(w.ID, 100)); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected halted wallet to keep rejecting, got %v", err)
	}
}

func TestListByWalletPagination(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	w := s.NewFundedWallet(uuid.NewString(), "USD", 0)

	for i := int64(1); i <= 5; i++ {
		if _, err := s.Apply(ctx, depositSet(w.ID, i*100)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	page, err := s.ListByWallet(ctx, w.ID, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Amount != 500 || page[1].Amount != 400 {
		t.Fatalf("expected newest-first page [500 400], got %+v", page)
	}

	page, err = s.ListByWallet(ctx, w.ID, 2, 4)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(page) != 1 || page[0].Amount != 100 {
		t.Fatalf("expected final page [100], got %+v", page)
	}
}
