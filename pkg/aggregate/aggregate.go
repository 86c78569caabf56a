// Package aggregate combines per-address balances and a fiat price into a single total.
package aggregate

import "xchbal/pkg/models"

// Aggregate sums the unspent balances and pairs the total with the price per coin.
// No rounding happens here; an empty slice yields a zero total.
func Aggregate(balances []models.BalanceResult, pricePerCoin float64) models.AggregateResult {
	return models.AggregateResult{
		TotalCoins:       TotalCoins(balances),
		FiatPricePerCoin: pricePerCoin,
	}
}

// TotalCoins is the plain sum of UnspentBalance over balances.
func TotalCoins(balances []models.BalanceResult) float64 {
	var total float64
	for _, b := range balances {
		total += b.UnspentBalance
	}
	return total
}
