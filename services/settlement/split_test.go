package settlement

import (
	"errors"
	"math/rand"
	"testing"

	"bookingpay/services/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSplitReferenceCase(t *testing.T) {
	split, err := ComputeSplit(decimal.RequireFromString("120.00"), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, Split{ProviderCents: 12000, PlatformFeeCents: 1200, TotalCents: 13200}, split)
}

func TestComputeSplitRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		price, pct string
		fee        int64
	}{
		{"0.05", "10", 1},      // 0.005 -> 0.01
		{"0.04", "10", 0},      // 0.004 -> 0.00
		{"33.33", "15", 500},   // 4.9995 -> 5.00
		{"19.99", "12.5", 250}, // 2.49875 -> 2.50
		{"100", "0", 0},
	}
	for _, tc := range cases {
		split, err := ComputeSplit(decimal.RequireFromString(tc.price), decimal.RequireFromString(tc.pct))
		require.NoError(t, err)
		assert.Equal(t, tc.fee, split.PlatformFeeCents, "%s @ %s%%", tc.price, tc.pct)
		assert.Equal(t, split.ProviderCents+split.PlatformFeeCents, split.TotalCents)
	}
}

func TestComputeSplitRoundsProviderAmount(t *testing.T) {
	split, err := ComputeSplit(decimal.RequireFromString("10.005"), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), split.ProviderCents)
	assert.Equal(t, int64(100), split.PlatformFeeCents)
	assert.Equal(t, int64(1101), split.TotalCents)
}

// Integer oracle: fee = priceCents*pct/100 cents, rounded half up (amounts are non-negative).
func TestSplitCentsMatchesIntegerArithmetic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		priceCents := rng.Int63n(10_000_000)
		pct := rng.Int63n(101)

		split, err := SplitCents(priceCents, decimal.NewFromInt(pct))
		require.NoError(t, err)

		num := priceCents * pct
		want := num / 100
		if (num%100)*2 >= 100 {
			want++
		}
		require.Equal(t, priceCents, split.ProviderCents)
		require.Equal(t, want, split.PlatformFeeCents, "price=%d pct=%d", priceCents, pct)
		require.Equal(t, split.ProviderCents+split.PlatformFeeCents, split.TotalCents)
	}
}

func TestComputeSplitRejectsNegatives(t *testing.T) {
	_, err := ComputeSplit(decimal.NewFromInt(-1), decimal.NewFromInt(10))
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	_, err = ComputeSplit(decimal.NewFromInt(1), decimal.NewFromInt(-10))
	assert.True(t, errors.Is(err, apperr.ErrInvalid))
}

func TestPriceToCents(t *testing.T) {
	assert.Equal(t, int64(12000), PriceToCents(decimal.NewFromFloat(120)))
	assert.Equal(t, int64(1999), PriceToCents(decimal.NewFromFloat(19.99)))
	assert.Equal(t, int64(1001), PriceToCents(decimal.RequireFromString("10.005")))
}
