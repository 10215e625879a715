package history

import (
	"context"

	"github.com/bazaar-pay/bazaar_pay/internal/ledger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page carries pagination parameters. Zero values take the defaults.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Service reads the committed transaction log. It never mutates anything.
type Service struct {
	reader ledger.Reader
}

// NewService builds a transaction log reader.
func NewService(reader ledger.Reader) *Service {
	return &Service{reader: reader}
}

// ListByWallet returns a wallet's transactions newest-first.
func (s *Service) ListByWallet(ctx context.Context, walletID string, page Page) ([]ledger.Transaction, error) {
	page = page.normalize()
	return s.reader.ListByWallet(ctx, walletID, page.Limit, page.Offset)
}

// ListByCorrelation returns every leg committed under a correlation id.
func (s *Service) ListByCorrelation(ctx context.Context, correlationID string) ([]ledger.Transaction, error) {
	return s.reader.ListByCorrelation(ctx, correlationID)
}

// Balance returns the wallet's committed balance.
func (s *Service) Balance(ctx context.Context, walletID string) (int64, error) {
	return s.reader.Balance(ctx, walletID)
}
