package policy

import "github.com/bazaar-pay/bazaar_pay/internal/currency"

// Config carries the fee and cashback parameters. Percentages are expressed
// in basis points so the calculation stays on integers end to end.
type Config struct {
	WithdrawalFeeBps   int64
	WithdrawalFeeFixed int64 // minor units, lower bound for the percentage fee
	CashbackBps        int64
	MinWithdrawalMajor int64 // major units, converted per currency exponent
}

// Default returns the stock marketplace parameters: 0.5% withdrawal fee,
// 1% transfer cashback, minimum withdrawal of 10 major units.
func Default() Config {
	return Config{
		WithdrawalFeeBps:   50,
		WithdrawalFeeFixed: 0,
		CashbackBps:        100,
		MinWithdrawalMajor: 10,
	}
}

// Policy computes auxiliary amounts for the transfer coordinator. It is
// stateless beyond its configuration and deterministic for a given input.
// Fractional minor-unit results are truncated toward zero.
type Policy struct {
	cfg Config
}

// New builds a Policy from the provided configuration.
func New(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// WithdrawalFee returns the fee charged on a withdrawal of the given
// minor-unit amount: the configured percentage, raised to the fixed floor
// when set, and never more than the amount itself.
func (p *Policy) WithdrawalFee(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	fee := amount * p.cfg.WithdrawalFeeBps / 10_000
	if fee < p.cfg.WithdrawalFeeFixed {
		fee = p.cfg.WithdrawalFeeFixed
	}
	if fee > amount {
		fee = amount
	}
	return fee
}

// Cashback returns the cashback credited to the payer for a transfer of the
// given minor-unit amount.
func (p *Policy) Cashback(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount * p.cfg.CashbackBps / 10_000
}

// MinWithdrawal returns the withdrawal floor in minor units of cur.
func (p *Policy) MinWithdrawal(cur currency.Currency) int64 {
	return cur.MinorUnits(p.cfg.MinWithdrawalMajor)
}
