// Package display renders the aggregate balance in the user-selected Mode.
package display

import (
	"math"
	"math/big"
	"strconv"

	"xchbal/pkg/fiat"

	"github.com/shopspring/decimal"
)

const (
	CoinSymbol   = "XCH"
	BaseUnitName = "Mojos"

	// BaseUnitExp is the power of ten of mojos per XCH.
	BaseUnitExp = 12
)

var mojosPerCoin = new(big.Int).Exp(big.NewInt(10), big.NewInt(BaseUnitExp), nil)

// Display is a rendered balance. Detailed renderings carry a second, base-unit field.
type Display struct {
	Amount     string
	Unit       string
	BaseAmount string
	BaseUnit   string
}

// Detailed reports whether the display has a base-unit field.
func (d Display) Detailed() bool {
	return d.BaseUnit != ""
}

func (d Display) String() string {
	s := d.Amount + " " + d.Unit
	if d.Detailed() {
		s += " " + d.BaseAmount + " " + d.BaseUnit
	}
	return s
}

// Format renders totalCoins for mode. A zero or NaN total is always "0 XCH".
func Format(totalCoins float64, mode Mode) Display {
	if isUnset(totalCoins) {
		return Display{Amount: "0", Unit: CoinSymbol}
	}
	switch mode {
	case Detailed:
		whole, frac := SplitBaseUnits(totalCoins)
		return Display{
			Amount:     strconv.FormatUint(whole, 10),
			Unit:       CoinSymbol,
			BaseAmount: strconv.FormatUint(frac, 10),
			BaseUnit:   BaseUnitName,
		}
	case Normal:
		return Display{Amount: strconv.FormatFloat(totalCoins, 'f', -1, 64), Unit: CoinSymbol}
	default:
		return Display{Amount: strconv.FormatFloat(totalCoins, 'f', 2, 64), Unit: CoinSymbol}
	}
}

// SplitBaseUnits splits a non-negative coin amount into whole coins and the remaining mojos,
// such that whole*10^12 + frac equals the amount in mojos rounded to the nearest integer.
// Negative amounts split as zero.
func SplitBaseUnits(totalCoins float64) (whole, frac uint64) {
	if totalCoins <= 0 {
		return 0, 0
	}
	mojos := decimal.NewFromFloat(totalCoins).Shift(BaseUnitExp).Round(0).BigInt()
	w, f := new(big.Int).QuoRem(mojos, mojosPerCoin, new(big.Int))
	return w.Uint64(), f.Uint64()
}

// Mood is the mascot expression shown next to the balance.
type Mood int

const (
	Sad Mood = iota
	Happy
)

// happyThreshold is the balance above which the mascot smiles.
const happyThreshold = 0.001

func MoodFor(totalCoins float64) Mood {
	if totalCoins > happyThreshold {
		return Happy
	}
	return Sad
}

func (m Mood) Face() string {
	if m == Happy {
		return "(^‿^)"
	}
	return "(╥﹏╥)"
}

// FiatLine renders "≈ $ 315.00" for the total, or "" when the total is zero.
func FiatLine(totalCoins, pricePerCoin float64, info fiat.Info) string {
	if isUnset(totalCoins) {
		return ""
	}
	return "≈ " + info.Symbol + " " + fiat.Format(totalCoins, pricePerCoin, info)
}

// isUnset treats NaN like an empty balance.
func isUnset(totalCoins float64) bool {
	return totalCoins == 0 || math.IsNaN(totalCoins)
}
