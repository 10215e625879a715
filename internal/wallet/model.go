package wallet

import (
	"time"

	"github.com/bazaar-pay/bazaar_pay/internal/currency"
)

// Wallet statuses. A deactivated wallet is kept forever; it only stops
// accepting new ledger operations.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Wallet holds one (owner, currency) balance. Balance and Version are owned
// by the ledger engine and change only through committed operation sets.
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  string
	Class     currency.Class
	Balance   int64 // minor units
	Status    string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the wallet accepts ledger operations.
func (w Wallet) Active() bool {
	return w.Status == StatusActive
}
