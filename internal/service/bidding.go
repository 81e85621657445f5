package service

import "math"

// BidIncrement returns the minimum increment for the given current price.
// Tiers: <100 -> 1, <500 -> 5, <1000 -> 10, >=1000 -> 25.
func BidIncrement(currentPrice float64) float64 {
	switch {
	case currentPrice < 100:
		return 1
	case currentPrice < 500:
		return 5
	case currentPrice < 1000:
		return 10
	default:
		return 25
	}
}

// MinimumBid returns the lowest acceptable bid amount for an auction whose
// current price is currentPrice.
func MinimumBid(currentPrice float64) float64 {
	return currentPrice + BidIncrement(currentPrice)
}

// CentsFromDollars converts decimal dollars to processor minor units.
func CentsFromDollars(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// CoinsFromDollars converts decimal dollars to coins (1 coin = $0.01).
func CoinsFromDollars(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// DollarsFromCoins converts coins back to decimal dollars for display.
func DollarsFromCoins(coins int64) float64 {
	return float64(coins) / 100
}

// PlatformFeeCents returns the platform fee in minor units for a sale amount
// at the given percentage rate.
func PlatformFeeCents(amount float64, feePercent float64) int64 {
	return int64(math.Round(amount * feePercent))
}

// SellerNet returns the seller's share of a sale after the platform fee,
// rounded to cents.
func SellerNet(amount float64, feePercent float64) float64 {
	return math.Round(amount*(100-feePercent)) / 100
}
