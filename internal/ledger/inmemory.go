package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

type walletState struct {
	w wallet.Wallet
	// lock serializes mutating access to this wallet. Buffered size one so
	// acquisition can race a deadline in a select.
	lock chan struct{}
}

// InMemoryStore is a concurrency-safe in-memory ledger engine that doubles
// as the wallet repository in dev mode and unit tests, so the registry and
// the engine share one view of the wallets.
type InMemoryStore struct {
	mu       sync.RWMutex
	wallets  map[string]*walletState
	history  []Transaction
	byCorr   map[string][]Transaction
	keys     map[string]string // idempotency key -> correlation id
	halted   map[string]bool
	lockWait time.Duration
}

var _ Engine = (*InMemoryStore)(nil)
var _ wallet.Repository = (*InMemoryStore)(nil)

// NewInMemory creates an in-memory store. lockWait bounds how long Apply
// waits for contended wallet locks before failing with ErrLockTimeout.
func NewInMemory(lockWait time.Duration) *InMemoryStore {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	return &InMemoryStore{
		wallets:  make(map[string]*walletState),
		byCorr:   make(map[string][]Transaction),
		keys:     make(map[string]string),
		halted:   make(map[string]bool),
		lockWait: lockWait,
	}
}

// Apply commits the operation set atomically or not at all.
func (s *InMemoryStore) Apply(ctx context.Context, set OperationSet) ([]Transaction, error) {
	if err := validateSet(set); err != nil {
		return nil, err
	}

	if prior, ok := s.replay(set.IdempotencyKey); ok {
		return prior, ErrDuplicateOperation
	}

	ids := walletIDs(set)
	states := make([]*walletState, 0, len(ids))
	s.mu.RLock()
	for _, id := range ids {
		st, ok := s.wallets[id]
		if !ok {
			s.mu.RUnlock()
			return nil, wallet.ErrNotFound
		}
		states = append(states, st)
	}
	s.mu.RUnlock()

	// Acquire every wallet lock in ascending id order under one deadline.
	release, err := s.acquire(ctx, states)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-check the key now that the wallets are locked; a concurrent retry
	// may have committed while we waited.
	if prior, ok := s.replay(set.IdempotencyKey); ok {
		return prior, ErrDuplicateOperation
	}

	s.mu.RLock()
	currencyCode := states[0].w.Currency
	for _, st := range states {
		if s.halted[st.w.ID] || st.w.Balance < 0 {
			s.mu.RUnlock()
			s.halt(st.w.ID)
			return nil, ErrCorrupted
		}
		if !st.w.Active() {
			s.mu.RUnlock()
			return nil, wallet.ErrInactive
		}
		if st.w.Currency != currencyCode {
			s.mu.RUnlock()
			return nil, ErrCurrencyMismatch
		}
	}

	next := make(map[string]int64, len(states))
	for _, st := range states {
		next[st.w.ID] = st.w.Balance
	}
	s.mu.RUnlock()

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
		txs = append(txs, Transaction{
			ID:            uuid.NewString(),
			WalletID:      e.WalletID,
			Amount:        e.Amount,
			Type:          e.Type,
			CorrelationID: set.CorrelationID,
			Counterparty:  e.Counterparty,
			Status:        StatusCompleted,
			Reference:     e.Reference,
			CreatedAt:     now,
		})
	}

	// Single critical section: balances, records, and the idempotency key
	// become visible together, so readers never observe a partial set.
	s.mu.Lock()
	for _, st := range states {
		st.w.Balance = next[st.w.ID]
		st.w.Version++
		st.w.UpdatedAt = now
	}
	s.history = append(s.history, txs...)
	s.byCorr[set.CorrelationID] = append(s.byCorr[set.CorrelationID], txs...)
	if set.IdempotencyKey != "" {
		s.keys[set.IdempotencyKey] = set.CorrelationID
	}
	s.mu.Unlock()

	return txs, nil
}

// Balance returns the committed balance for the wallet.
func (s *InMemoryStore) Balance(_ context.Context, walletID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.wallets[walletID]
	if !ok {
		return 0, wallet.ErrNotFound
	}
	return st.w.Balance, nil
}

// ListByWallet returns the wallet's transactions newest-first.
func (s *InMemoryStore) ListByWallet(_ context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.wallets[walletID]; !ok {
		return nil, wallet.ErrNotFound
	}

	var out []Transaction
	skipped := 0
	for i := len(s.history) - 1; i >= 0; i-- {
		tx := s.history[i]
		if tx.WalletID != walletID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListByCorrelation returns every leg of a compound operation.
func (s *InMemoryStore) ListByCorrelation(_ context.Context, correlationID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := s.byCorr[correlationID]
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

// Create implements wallet.Repository.
func (s *InMemoryStore) Create(_ context.Context, w wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.wallets {
		if st.w.OwnerID == w.OwnerID && st.w.Currency == w.Currency && st.w.Active() {
			return wallet.ErrDuplicate
		}
	}
	s.wallets[w.ID] = &walletState{w: w, lock: make(chan struct{}, 1)}
	return nil
}

// Get implements wallet.Repository.
func (s *InMemoryStore) Get(_ context.Context, id string) (wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.wallets[id]
	if !ok {
		return wallet.Wallet{}, wallet.ErrNotFound
	}
	return st.w, nil
}

// ListByOwner implements wallet.Repository.
func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID string) ([]wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var wallets []wallet.Wallet
	for _, st := range s.wallets {
		if st.w.OwnerID == ownerID {
			wallets = append(wallets, st.w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].CreatedAt.Before(wallets[j].CreatedAt) })
	return wallets, nil
}

// Deactivate implements wallet.Repository. It takes the wallet lock so a
// status flip serializes against in-flight operation sets.
func (s *InMemoryStore) Deactivate(ctx context.Context, id string) error {
	s.mu.RLock()
	st, ok := s.wallets[id]
	s.mu.RUnlock()
	if !ok {
		return wallet.ErrNotFound
	}

	release, err := s.acquire(ctx, []*walletState{st})
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !st.w.Active() {
		return wallet.ErrInactive
	}
	st.w.Status = wallet.StatusInactive
	st.w.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) replay(key string) ([]Transaction, bool) {
	if key == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	corr, ok := s.keys[key]
	if !ok {
		return nil, false
	}
	txs := s.byCorr[corr]
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out, true
}

func (s *InMemoryStore) acquire(ctx context.Context, states []*walletState) (func(), error) {
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()

	acquired := make([]*walletState, 0, len(states))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i].lock
		}
	}

	for _, st := range states {
		select {
		case st.lock <- struct{}{}:
			acquired = append(acquired, st)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		case <-deadline.C:
			release()
			return nil, ErrLockTimeout
		}
	}
	return release, nil
}

func (s *InMemoryStore) halt(walletID string) {
	s.mu.Lock()
	s.halted[walletID] = true
	s.mu.Unlock()
}

// walletIDs returns the distinct wallet ids of a set in ascending order,
// the global lock order that prevents deadlock between opposite transfers.
func walletIDs(set OperationSet) []string {
	seen := make(map[string]struct{}, len(set.Entries))
	ids := make([]string, 0, len(set.Entries))
	for _, e := range set.Entries {
		if _, ok := seen[e.WalletID]; ok {
			continue
		}
		seen[e.WalletID] = struct{}{}
		ids = append(ids, e.WalletID)
	}
	sort.Strings(ids)
	return ids
}
