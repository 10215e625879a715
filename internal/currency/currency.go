package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupported indicates a currency code outside the configured set.
var ErrUnsupported = errors.New("unsupported currency")

// Class partitions currencies by settlement behaviour.
type Class string

const (
	ClassFiat   Class = "fiat"
	ClassCrypto Class = "crypto"
)

// DefaultCode is assigned when wallet creation omits a currency.
const DefaultCode = "USD"

// Currency describes one supported settlement currency. All balance
// arithmetic happens on integers in minor units; Exponent is the number of
// decimal places between the major unit and the minor unit.
type Currency struct {
	Code     string
	Class    Class
	Exponent int
}

var registry = map[string]Currency{
	"USD": {Code: "USD", Class: ClassFiat, Exponent: 2},
	"EUR": {Code: "EUR", Class: ClassFiat, Exponent: 2},
	"IRR": {Code: "IRR", Class: ClassFiat, Exponent: 0},
	"BTC": {Code: "BTC", Class: ClassCrypto, Exponent: 8},
	"ETH": {Code: "ETH", Class: ClassCrypto, Exponent: 8},
}

// Lookup resolves a currency code case-insensitively.
func Lookup(code string) (Currency, error) {
	cur, ok := registry[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrUnsupported, code)
	}
	return cur, nil
}

// Supported lists the configured currencies in code order.
func Supported() []Currency {
	out := make([]Currency, 0, len(registry))
	for _, cur := range registry {
		out = append(out, cur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// MinorUnits converts an amount in major units into minor units.
func (c Currency) MinorUnits(major int64) int64 {
	units := major
	for i := 0; i < c.Exponent; i++ {
		units *= 10
	}
	return units
}
