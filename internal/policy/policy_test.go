package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaar-pay/bazaar_pay/internal/currency"
)

func TestWithdrawalFeePercentage(t *testing.T) {
	p := New(Config{WithdrawalFeeBps: 50})

	assert.Equal(t, int64(10), p.WithdrawalFee(2_000))
	assert.Equal(t, int64(50), p.WithdrawalFee(10_000))
}

func TestWithdrawalFeeTruncatesTowardZero(t *testing.T) {
	p := New(Config{WithdrawalFeeBps: 50})

	// 0.5% of 150 is 0.75 minor units; fractions are dropped.
	assert.Equal(t, int64(0), p.WithdrawalFee(150))
	assert.Equal(t, int64(0), p.WithdrawalFee(199))
	assert.Equal(t, int64(1), p.WithdrawalFee(200))
}

func TestWithdrawalFeeFixedFloor(t *testing.T) {
	p := New(Config{WithdrawalFeeBps: 50, WithdrawalFeeFixed: 25})

	assert.Equal(t, int64(25), p.WithdrawalFee(2_000))
	assert.Equal(t, int64(50), p.WithdrawalFee(10_000))
}

func TestWithdrawalFeeNeverExceedsAmount(t *testing.T) {
	p := New(Config{WithdrawalFeeBps: 50, WithdrawalFeeFixed: 500})

	assert.Equal(t, int64(100), p.WithdrawalFee(100))
	assert.Equal(t, int64(0), p.WithdrawalFee(0))
	assert.Equal(t, int64(0), p.WithdrawalFee(-50))
}

func TestCashback(t *testing.T) {
	p := New(Config{CashbackBps: 100})

	assert.Equal(t, int64(50), p.Cashback(5_000))
	assert.Equal(t, int64(0), p.Cashback(99))
	assert.Equal(t, int64(0), p.Cashback(-5_000))
}

func TestDeterminism(t *testing.T) {
	p := New(Default())
	first := p.WithdrawalFee(123_456)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, p.WithdrawalFee(123_456))
	}
}

func TestMinWithdrawalScalesWithExponent(t *testing.T) {
	p := New(Default())

	usd, err := currency.Lookup("USD")
	require.NoError(t, err)
	irr, err := currency.Lookup("IRR")
	require.NoError(t, err)

	assert.Equal(t, int64(1_000), p.MinWithdrawal(usd))
	assert.Equal(t, int64(10), p.MinWithdrawal(irr))
}
