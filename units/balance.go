// Package units implements the base/display unit conversion for the chain's
// native token. All on-chain arithmetic happens in rao; Balance only
// converts to the float tao representation at display boundaries.
package units

import (
	"fmt"
	"math"
)

// RaoPerTao is the fixed-point scale between the base unit (rao) and the
// display unit (tao): 1 tao = 10^9 rao.
const RaoPerTao = 1_000_000_000

// TaoSymbol and RaoSymbol are the display prefixes used by String/RaoString.
const (
	TaoSymbol = "τ" // τ
	RaoSymbol = "ρ" // ρ
)

// Balance is an amount of the native token, stored internally in rao. The
// zero value is a zero balance.
type Balance struct {
	rao int64
}

// FromRao constructs a Balance from an integer amount of rao.
func FromRao(rao int64) Balance { return Balance{rao: rao} }

// FromTao constructs a Balance from a float amount of tao, rounding to the
// nearest rao.
func FromTao(tao float64) Balance {
	return Balance{rao: int64(math.Round(tao * RaoPerTao))}
}

// Parse accepts either a bare integer literal (interpreted as rao) or a
// literal containing a decimal point (interpreted as tao), matching the
// source's "int is rao, float is tao" convention.
func Parse(s string) (Balance, error) {
	var hasDot bool
	for _, r := range s {
		if r == '.' {
			hasDot = true
			break
		}
	}
	if hasDot {
		var tao float64
		if _, err := fmt.Sscanf(s, "%g", &tao); err != nil {
			return Balance{}, fmt.Errorf("parse balance %q as tao: %w", s, err)
		}
		return FromTao(tao), nil
	}
	var rao int64
	if _, err := fmt.Sscanf(s, "%d", &rao); err != nil {
		return Balance{}, fmt.Errorf("parse balance %q as rao: %w", s, err)
	}
	return FromRao(rao), nil
}

// Rao returns the amount in base units.
func (b Balance) Rao() int64 { return b.rao }

// Tao returns the amount in display units, as a float.
func (b Balance) Tao() float64 { return float64(b.rao) / RaoPerTao }

// Add returns b+other.
func (b Balance) Add(other Balance) Balance { return Balance{rao: b.rao + other.rao} }

// Sub returns b-other.
func (b Balance) Sub(other Balance) Balance { return Balance{rao: b.rao - other.rao} }

// Cmp returns -1, 0 or 1 as b is less than, equal to, or greater than other.
func (b Balance) Cmp(other Balance) int {
	switch {
	case b.rao < other.rao:
		return -1
	case b.rao > other.rao:
		return 1
	default:
		return 0
	}
}

// String formats the balance in tao with 9 fractional digits, e.g.
// "τ1.500000000".
func (b Balance) String() string {
	return fmt.Sprintf("%s%.9f", TaoSymbol, b.Tao())
}

// RaoString formats the balance in raw rao, e.g. "ρ1500000000".
func (b Balance) RaoString() string {
	return fmt.Sprintf("%s%d", RaoSymbol, b.rao)
}
