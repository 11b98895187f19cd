package settlement

import (
	"bookingpay/services/apperr"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Split is the division of one client charge between the provider and the platform.
// TotalCents == ProviderCents + PlatformFeeCents always holds.
type Split struct {
	ProviderCents    int64
	PlatformFeeCents int64
	TotalCents       int64
}

// ComputeSplit derives the split from the booking price. Both amounts are rounded to two places,
// half away from zero, and the total is their sum so it never drifts from its parts.
func ComputeSplit(price, feePercent decimal.Decimal) (Split, error) {
	if price.IsNegative() {
		return Split{}, apperr.E(apperr.KindInvalid, "ComputeSplit", "price must not be negative")
	}
	if feePercent.IsNegative() {
		return Split{}, apperr.E(apperr.KindInvalid, "ComputeSplit", "fee percent must not be negative")
	}
	provider := price.Round(2)
	fee := price.Mul(feePercent).Div(hundred).Round(2)
	return Split{
		ProviderCents:    toCents(provider),
		PlatformFeeCents: toCents(fee),
		TotalCents:       toCents(provider.Add(fee)),
	}, nil
}

// SplitCents is ComputeSplit for a price already held in cents.
func SplitCents(priceCents int64, feePercent decimal.Decimal) (Split, error) {
	return ComputeSplit(decimal.New(priceCents, -2), feePercent)
}

// PriceToCents snapshots a catalog price as cents, rounding half away from zero.
func PriceToCents(price decimal.Decimal) int64 {
	return toCents(price.Round(2))
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}
