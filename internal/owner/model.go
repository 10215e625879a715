package owner

import "time"

// Owner represents a marketplace participant able to hold wallets.
type Owner struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}
