package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-pay/bazaar_pay/internal/currency"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// NewFundedWallet registers an active wallet with an opening balance. Test
// helper only; production balances move exclusively through Apply.
func (s *InMemoryStore) NewFundedWallet(ownerID, currencyCode string, balance int64) wallet.Wallet {
	cur, err := currency.Lookup(currencyCode)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	w := wallet.Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Currency:  cur.Code,
		Class:     cur.Class,
		Balance:   balance,
		Status:    wallet.StatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.wallets[w.ID] = &walletState{w: w, lock: make(chan struct{}, 1)}
	s.mu.Unlock()
	return w
}

// CorruptBalance forces a wallet balance below zero, bypassing Apply. Test
// helper for exercising the halt-on-corruption path.
func (s *InMemoryStore) CorruptBalance(walletID string, balance int64) {
	s.mu.Lock()
	if st, ok := s.wallets[walletID]; ok {
		st.w.Balance = balance
	}
	s.mu.Unlock()
}
