package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units (paise).
// Valid amounts lie in [-MaxAmount, MaxAmount]; arithmetic helpers report
// ErrOutOfRange instead of wrapping.
type Money int64

const (
	// Zero is the zero amount.
	Zero Money = 0
	// MaxAmount is the largest magnitude any single amount or total may reach:
	// 1,00,000 crore rupees, i.e. 10^14 paise.
	MaxAmount Money = 100_000_000_000_000
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(int64(MaxAmount))
	minMinor = decimal.NewFromInt(-int64(MaxAmount))
)

var (
	// ErrInvalidAmount is returned when a textual amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid money amount")
	// ErrOutOfRange is returned when an amount or a result leaves [-MaxAmount, MaxAmount].
	ErrOutOfRange = errors.New("money amount out of range")
)

// FromDecimal converts a major-unit decimal into minor units, rounding half-up to 2 places.
func FromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(2).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return Zero, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Money(minor.IntPart()), nil
}

// FromMajor converts a whole major-unit amount (rupees) into minor units.
func FromMajor(v int64) Money {
	return Money(v * 100)
}

// Parse reads a major-unit amount such as "150.5" or "1,200.00".
func Parse(s string) (Money, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if trimmed == "" {
		return Zero, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// InRange reports whether m lies in [-MaxAmount, MaxAmount].
func (m Money) InRange() bool {
	return m >= -MaxAmount && m <= MaxAmount
}

func checked(m Money) (Money, error) {
	if !m.InRange() {
		return Zero, fmt.Errorf("%w: %d paise", ErrOutOfRange, int64(m))
	}
	return m, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount in major units with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Mul multiplies the amount by an integer quantity.
func (m Money) Mul(qty int) (Money, error) {
	if !m.InRange() {
		return checked(m)
	}
	if m == 0 || qty == 0 {
		return Zero, nil
	}
	q := Money(qty)
	p := m * q
	if p/q != m {
		return Zero, fmt.Errorf("%w: %s x %d", ErrOutOfRange, m, qty)
	}
	return checked(p)
}

// Percent returns pct% of m rounded half-up to the nearest minor unit.
func (m Money) Percent(pct decimal.Decimal) (Money, error) {
	return FromDecimal(m.Decimal().Mul(pct).Div(hundred))
}

// Clamp bounds m to [lo, hi].
func (m Money) Clamp(lo, hi Money) Money {
	if m < lo {
		return lo
	}
	if m > hi {
		return hi
	}
	return m
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}

// Add returns a+b.
func Add(a, b Money) (Money, error) {
	if !a.InRange() {
		return checked(a)
	}
	if !b.InRange() {
		return checked(b)
	}
	// both operands are within ±10^14, so the int64 sum cannot wrap
	return checked(a + b)
}

// Sum adds the provided amounts.
func Sum(values ...Money) (Money, error) {
	var total Money
	for _, v := range values {
		next, err := Add(total, v)
		if err != nil {
			return Zero, err
		}
		total = next
	}
	return total, nil
}

// MarshalJSON renders the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
// Amounts beyond MaxAmount saturate to the int64 bounds so that range
// validation can report the offending field; they never wrap.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*m = Zero
		return nil
	}
	raw = bytes.Trim(raw, `"`)
	parsed, err := Parse(string(raw))
	if errors.Is(err, ErrOutOfRange) {
		if strings.HasPrefix(strings.TrimSpace(string(raw)), "-") {
			*m = math.MinInt64
		} else {
			*m = math.MaxInt64
		}
		return nil
	}
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
