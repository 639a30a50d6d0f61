// Package money holds the arbitrary-precision helpers used to turn raw token
// amounts into USD values. Inputs come from untrusted upstream payloads, so
// every entry point degrades to a neutral default instead of failing.
package money

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxUSD is the largest USD value the cache schema represents.
const MaxUSD = 999999.99

var (
	maxAmount = decimal.New(1, 50) // corrupt-feed guard on raw base units
	maxPrice  = decimal.New(1, 6)  // unrealistic token price guard
)

// SafeDecimal parses v into a decimal, returning zero on anything that does
// not look numeric. Accepts the shapes encoding/json produces plus strings.
func SafeDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	default:
		return decimal.Zero
	}
}

// SafeInt coerces v to an int, returning def when it cannot be parsed.
// JSON numbers arrive as float64, decimals fields occasionally as strings.
func SafeInt(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// SafeFloat parses v into a float64, zero on anything non-numeric.
func SafeFloat(v any) float64 {
	f, _ := SafeDecimal(v).Float64()
	return f
}

// Normalize converts a raw token amount into a USD value:
// amount * price / 10^decimals, with the clamp policy applied in order:
// amounts above 1e50 base units clamp to 1e50, prices above 1e6 clamp to 1e6,
// and non-positive decimals substitute the common default of 18.
func Normalize(amount, price any, decimals int) float64 {
	amt := SafeDecimal(amount)
	if amt.GreaterThan(maxAmount) {
		amt = maxAmount
	}

	prc := SafeDecimal(price)
	if prc.GreaterThan(maxPrice) {
		prc = maxPrice
	}

	if decimals <= 0 {
		decimals = 18
	}

	usd := amt.Mul(prc).Div(decimal.New(1, int32(decimals)))
	f, _ := usd.Float64()
	return f
}

// RoundFee rounds an accumulated fee to 8 decimal places. Fees carry more
// precision than amounts because they can be tiny relative to swap size.
func RoundFee(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(8).Float64()
	return f
}
