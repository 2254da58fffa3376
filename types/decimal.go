// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// DecimalPlaces is the fixed precision of every Decimal.
const DecimalPlaces = 18

var (
	ErrDecimalOverflow     = errors.New("decimal overflow")
	ErrDecimalUnderflow    = errors.New("decimal underflow")
	ErrInvalidDecimal      = errors.New("invalid decimal")
	ErrInvalidDivisibility = errors.New("invalid divisibility")

	pow10 [DecimalPlaces + 1]uint64
)

func init() {
	pow10[0] = 1
	for i := 1; i <= DecimalPlaces; i++ {
		pow10[i] = pow10[i-1] * 10
	}
}

// Decimal is a non-negative fixed point number with 18 decimal places. The
// underlying integer counts attos (10^-18).
type Decimal uint256.Int

// RoundingMode selects how amounts are rounded to a resource's divisibility.
type RoundingMode uint8

const (
	ToZero RoundingMode = iota
	AwayFromZero
	ToNearestMidpointTowardZero
)

func (m RoundingMode) String() string {
	switch m {
	case ToZero:
		return "ToZero"
	case AwayFromZero:
		return "AwayFromZero"
	case ToNearestMidpointTowardZero:
		return "ToNearestMidpointTowardZero"
	default:
		return fmt.Sprintf("RoundingMode(%d)", uint8(m))
	}
}

// NewDecimal returns the Decimal representing [whole] units.
func NewDecimal(whole uint64) Decimal {
	var v uint256.Int
	v.Mul(uint256.NewInt(whole), uint256.NewInt(pow10[DecimalPlaces]))
	return Decimal(v)
}

// MustParseDecimal is ParseDecimal that panics on error.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal parses a base 10 string such as "12" or "0.005".
func ParseDecimal(s string) (Decimal, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > DecimalPlaces || !isDigits(whole) || !isDigits(frac) {
		return Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	digits := whole + frac + strings.Repeat("0", DecimalPlaces-len(frac))
	b, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return Decimal{}, fmt.Errorf("%w: %q", ErrDecimalOverflow, s)
	}
	return Decimal(*v), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (d Decimal) int() *uint256.Int {
	v := uint256.Int(d)
	return &v
}

func (d Decimal) IsZero() bool { return d.int().IsZero() }

// Cmp returns -1, 0 or +1 as [d] is less than, equal to or greater than [o].
func (d Decimal) Cmp(o Decimal) int { return d.int().Cmp(o.int()) }

func (d Decimal) Add(o Decimal) (Decimal, error) {
	var v uint256.Int
	if _, overflow := v.AddOverflow(d.int(), o.int()); overflow {
		return Decimal{}, ErrDecimalOverflow
	}
	return Decimal(v), nil
}

func (d Decimal) CheckedSub(o Decimal) (Decimal, error) {
	if d.Cmp(o) < 0 {
		return Decimal{}, fmt.Errorf("%w: %s - %s", ErrDecimalUnderflow, d, o)
	}
	var v uint256.Int
	v.Sub(d.int(), o.int())
	return Decimal(v), nil
}

// IsDivisible returns true if [d] has no digits beyond [divisibility] decimal
// places.
func (d Decimal) IsDivisible(divisibility uint8) bool {
	if divisibility > DecimalPlaces {
		return false
	}
	var rem uint256.Int
	rem.Mod(d.int(), uint256.NewInt(pow10[DecimalPlaces-int(divisibility)]))
	return rem.IsZero()
}

// Round rounds [d] to [divisibility] decimal places.
func (d Decimal) Round(divisibility uint8, mode RoundingMode) (Decimal, error) {
	if divisibility > DecimalPlaces {
		return Decimal{}, fmt.Errorf("%w: %d", ErrInvalidDivisibility, divisibility)
	}
	unit := uint256.NewInt(pow10[DecimalPlaces-int(divisibility)])
	var rem, down uint256.Int
	rem.Mod(d.int(), unit)
	if rem.IsZero() {
		return d, nil
	}
	down.Sub(d.int(), &rem)

	up := false
	switch mode {
	case ToZero:
	case AwayFromZero:
		up = true
	case ToNearestMidpointTowardZero:
		var twice uint256.Int
		twice.Lsh(&rem, 1)
		up = twice.Gt(unit)
	default:
		return Decimal{}, fmt.Errorf("unknown rounding mode %s", mode)
	}
	if !up {
		return Decimal(down), nil
	}
	var v uint256.Int
	if _, overflow := v.AddOverflow(&down, unit); overflow {
		return Decimal{}, ErrDecimalOverflow
	}
	return Decimal(v), nil
}

func (d Decimal) String() string {
	s := d.int().ToBig().String()
	if len(s) <= DecimalPlaces {
		s = strings.Repeat("0", DecimalPlaces-len(s)+1) + s
	}
	whole, frac := s[:len(s)-DecimalPlaces], strings.TrimRight(s[len(s)-DecimalPlaces:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func (d Decimal) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Decimal) UnmarshalText(text []byte) error {
	v, err := ParseDecimal(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
