package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-pay/bazaar_pay/internal/currency"
)

// OwnerLookup is the identity collaborator consulted before provisioning a
// wallet. Implemented by the owner directory.
type OwnerLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service exposes wallet registry operations. It touches identity only;
// balances move exclusively through the ledger engine.
type Service struct {
	repo   Repository
	owners OwnerLookup
}

// NewService builds a wallet registry service.
func NewService(repo Repository, owners OwnerLookup) *Service {
	return &Service{repo: repo, owners: owners}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID  string
	Currency string
}

// Create provisions an active zero-balance wallet for the (owner, currency)
// pair. At most one active wallet may exist per pair.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, errors.New("owner id must be a valid uuid")
	}
	if s.owners != nil {
		ok, err := s.owners.Exists(ctx, input.OwnerID)
		if err != nil {
			return Wallet{}, err
		}
		if !ok {
			return Wallet{}, errors.New("unknown owner")
		}
	}

	code := input.Currency
	if code == "" {
		code = currency.DefaultCode
	}
	cur, err := currency.Lookup(code)
	if err != nil {
		return Wallet{}, err
	}

	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.NewString(),
		OwnerID:   input.OwnerID,
		Currency:  cur.Code,
		Class:     cur.Class,
		Balance:   0,
		Status:    StatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Get retrieves wallet metadata and the committed balance.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner returns the owner's wallets.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Deactivate flips the wallet to inactive. Administrative action; the
// wallet and its history survive, new operations are rejected.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}
