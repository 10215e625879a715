package transfer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bazaar-pay/bazaar_pay/internal/currency"
	"github.com/bazaar-pay/bazaar_pay/internal/ledger"
	"github.com/bazaar-pay/bazaar_pay/internal/notification"
	"github.com/bazaar-pay/bazaar_pay/internal/policy"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

var (
	// ErrInvalidAmount rejects non-positive operation amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrSameWallet rejects transfers where payer and payee coincide.
	ErrSameWallet = errors.New("cannot transfer to the same wallet")
	// ErrBelowMinimum rejects withdrawals under the policy floor.
	ErrBelowMinimum = errors.New("amount below minimum withdrawal")
)

// WalletStore is the slice of the wallet registry the coordinator needs.
type WalletStore interface {
	Get(ctx context.Context, id string) (wallet.Wallet, error)
}

// Service translates deposit, withdrawal, and transfer requests into ledger
// operation sets, applying fee and cashback policy before anything touches
// the engine.
type Service struct {
	engine   ledger.Engine
	wallets  WalletStore
	policy   *policy.Policy
	notifier notification.Notifier
	log      *slog.Logger
}

// NewService builds a transfer coordinator.
func NewService(engine ledger.Engine, wallets WalletStore, pol *policy.Policy, notifier notification.Notifier, log *slog.Logger) *Service {
	return &Service{engine: engine, wallets: wallets, policy: pol, notifier: notifier, log: log}
}

// Result is the outcome of a committed (or replayed) operation set.
type Result struct {
	CorrelationID string
	Duplicate     bool
	Transactions  []ledger.Transaction
}

// Deposit credits a wallet. Deposits carry no fee.
func (s *Service) Deposit(ctx context.Context, walletID string, amount int64, key, reference string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	set := ledger.OperationSet{
		CorrelationID:  uuid.NewString(),
		IdempotencyKey: scopeKey("deposit", key),
		Entries: []ledger.Entry{
			{WalletID: walletID, Amount: amount, Type: ledger.EntryDeposit, Reference: reference},
		},
	}
	return s.apply(ctx, set)
}

// Withdraw debits a wallet, charging the withdrawal fee as a second leg of
// the same operation set. The amount must meet the per-currency minimum.
func (s *Service) Withdraw(ctx context.Context, walletID string, amount int64, key, reference string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	w, err := s.wallets.Get(ctx, walletID)
	if err != nil {
		return Result{}, err
	}
	cur, err := currency.Lookup(w.Currency)
	if err != nil {
		return Result{}, err
	}
	if amount < s.policy.MinWithdrawal(cur) {
		return Result{}, ErrBelowMinimum
	}

	entries := []ledger.Entry{
		{WalletID: walletID, Amount: -amount, Type: ledger.EntryWithdrawal, Reference: reference},
	}
	if fee := s.policy.WithdrawalFee(amount); fee > 0 {
		entries = append(entries, ledger.Entry{WalletID: walletID, Amount: -fee, Type: ledger.EntryFee})
	}

	set := ledger.OperationSet{
		CorrelationID:  uuid.NewString(),
		IdempotencyKey: scopeKey("withdraw", key),
		Entries:        entries,
	}
	return s.apply(ctx, set)
}

// Transfer moves funds between two wallets of the same currency and awards
// the payer cashback per policy, all in one atomic set.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount int64, key, reference string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if fromID == toID {
		return Result{}, ErrSameWallet
	}

	from, err := s.wallets.Get(ctx, fromID)
	if err != nil {
		return Result{}, err
	}
	to, err := s.wallets.Get(ctx, toID)
	if err != nil {
		return Result{}, err
	}
	if from.Currency != to.Currency {
		return Result{}, ledger.ErrCurrencyMismatch
	}

	entries := []ledger.Entry{
		{WalletID: fromID, Amount: -amount, Type: ledger.EntryTransferOut, Counterparty: toID, Reference: reference},
		{WalletID: toID, Amount: amount, Type: ledger.EntryTransferIn, Counterparty: fromID, Reference: reference},
	}
	cashback := s.policy.Cashback(amount)
	if cashback > 0 {
		entries = append(entries, ledger.Entry{WalletID: fromID, Amount: cashback, Type: ledger.EntryCashback})
	}

	set := ledger.OperationSet{
		CorrelationID:  uuid.NewString(),
		IdempotencyKey: scopeKey("transfer", key),
		Entries:        entries,
	}
	res, err := s.apply(ctx, set)
	if err != nil {
		return res, err
	}

	if !res.Duplicate && s.notifier != nil {
		s.notifier.Notify(ctx, notification.Event{
			Kind:     notification.KindTransferReceived,
			WalletID: toID,
			Amount:   amount,
			Currency: to.Currency,
		})
		if cashback > 0 {
			s.notifier.Notify(ctx, notification.Event{
				Kind:     notification.KindCashbackAwarded,
				WalletID: fromID,
				Amount:   cashback,
				Currency: from.Currency,
			})
		}
	}
	return res, nil
}

func (s *Service) apply(ctx context.Context, set ledger.OperationSet) (Result, error) {
	txs, err := s.engine.Apply(ctx, set)
	if err != nil {
		// A replayed key is a success from the caller's point of view: the
		// operation happened exactly once, on the earlier request.
		if errors.Is(err, ledger.ErrDuplicateOperation) && len(txs) > 0 {
			s.log.InfoContext(ctx, "idempotent replay",
				slog.String("idempotency_key", set.IdempotencyKey),
				slog.String("correlation_id", txs[0].CorrelationID))
			return Result{CorrelationID: txs[0].CorrelationID, Duplicate: true, Transactions: txs}, nil
		}
		return Result{}, err
	}
	return Result{CorrelationID: set.CorrelationID, Transactions: txs}, nil
}

func scopeKey(kind, key string) string {
	if key == "" {
		return ""
	}
	return kind + ":" + key
}
