package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseAndFormat(t *testing.T) {
	m, err := Parse("150.5")
	require.NoError(t, err)
	require.Equal(t, Money(15050), m)
	require.Equal(t, "150.50", m.String())

	m, err = Parse("1,200")
	require.NoError(t, err)
	require.Equal(t, FromMajor(1200), m)

	m, err = Parse("")
	require.NoError(t, err)
	require.Equal(t, Zero, m)

	_, err = Parse("12abc")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func mustDecimal(t *testing.T, s string) Money {
	t.Helper()
	m, err := FromDecimal(decimal.RequireFromString(s))
	require.NoError(t, err)
	return m
}

func TestFromDecimalRoundsHalfUp(t *testing.T) {
	require.Equal(t, Money(1), mustDecimal(t, "0.005"))
	require.Equal(t, Money(0), mustDecimal(t, "0.004"))
	require.Equal(t, Money(12346), mustDecimal(t, "123.455"))
}

func TestFromDecimalRejectsOutOfRange(t *testing.T) {
	require.Equal(t, MaxAmount, mustDecimal(t, "1000000000000"))

	_, err := FromDecimal(decimal.RequireFromString("1000000000000.01"))
	require.ErrorIs(t, err, ErrOutOfRange)

	// would wrap to 1553255926290448384 paise if truncated to int64
	_, err = FromDecimal(decimal.RequireFromString("200000000000000000"))
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Parse("-99999999999999999999")
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestPercent(t *testing.T) {
	tenth, err := FromMajor(1200).Percent(decimal.NewFromInt(10))
	require.NoError(t, err)
	require.Equal(t, FromMajor(120), tenth)

	// 18% of 0.33 = 0.0594 -> 0.06
	gst, err := Money(33).Percent(decimal.NewFromInt(18))
	require.NoError(t, err)
	require.Equal(t, Money(6), gst)

	// 2.5% of 0.10 = 0.0025 -> 0.00
	small, err := Money(10).Percent(decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	require.Equal(t, Money(0), small)

	_, err = MaxAmount.Percent(decimal.NewFromInt(101))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestMulChecksOverflow(t *testing.T) {
	m, err := Money(250).Mul(4)
	require.NoError(t, err)
	require.Equal(t, Money(1000), m)

	m, err = Money(250).Mul(0)
	require.NoError(t, err)
	require.Equal(t, Zero, m)

	// 1e9 x 1e10 paise wraps int64 when multiplied naively
	_, err = Money(10_000_000_000).Mul(1_000_000_000)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = (MaxAmount / 2).Mul(3)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Money(math.MaxInt64).Mul(1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestAddAndSumCheckRange(t *testing.T) {
	total, err := Sum(2, 3, 4)
	require.NoError(t, err)
	require.Equal(t, Money(9), total)

	total, err = Add(MaxAmount, -MaxAmount)
	require.NoError(t, err)
	require.Equal(t, Zero, total)

	_, err = Add(MaxAmount, 1)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Sum(MaxAmount/2, MaxAmount/2, 1)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Add(Money(math.MaxInt64), Money(math.MaxInt64))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestClampAndMax(t *testing.T) {
	require.Equal(t, Money(5), Money(-3).Clamp(5, 10))
	require.Equal(t, Money(10), Money(30).Clamp(5, 10))
	require.Equal(t, Money(7), Money(7).Clamp(5, 10))
	require.Equal(t, Zero, Max(Money(-4), Zero))
}

func TestJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":150.5,"b":"99.99","c":null}`), &payload))
	require.Equal(t, Money(15050), payload.A)
	require.Equal(t, Money(9999), payload.B)
	require.Equal(t, Zero, payload.C)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":150.50,"b":99.99,"c":0.00}`, string(out))
}

func TestJSONSaturatesOutOfRange(t *testing.T) {
	var payload struct {
		Rate Money `json:"rate"`
		Paid Money `json:"paid"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rate":"200000000000000000","paid":-1e30}`), &payload))
	require.Equal(t, Money(math.MaxInt64), payload.Rate)
	require.Equal(t, Money(math.MinInt64), payload.Paid)
	require.False(t, payload.Rate.InRange())
	require.False(t, payload.Paid.InRange())

	var bad struct {
		A Money `json:"a"`
	}
	require.ErrorIs(t, json.Unmarshal([]byte(`{"a":"12abc"}`), &bad), ErrInvalidAmount)
}
