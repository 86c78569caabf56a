// Package fiat resolves currency keys to ISO codes and symbols and formats fiat amounts.
package fiat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Info describes a fiat currency for display.
type Info struct {
	Code   string // ISO 4217, upper case
	Symbol string
	Scale  int // digits after the decimal point
}

var printer = message.NewPrinter(language.English)

// Lookup resolves a currency key such as "usd" or "EUR".
func Lookup(key string) (Info, error) {
	code := strings.ToUpper(strings.TrimSpace(key))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Info{}, fmt.Errorf("unknown currency %q: %w", key, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	sym := printer.Sprint(currency.NarrowSymbol(unit))
	if sym == "" {
		sym = unit.String()
	}
	return Info{Code: unit.String(), Symbol: sym, Scale: scale}, nil
}

// MustLookup is Lookup with a plain fallback for codes x/text does not know.
func MustLookup(key string) Info {
	info, err := Lookup(key)
	if err != nil {
		code := strings.ToUpper(strings.TrimSpace(key))
		return Info{Code: code, Symbol: code, Scale: 2}
	}
	return info
}

// Format multiplies coins by price and renders the result with the currency's minor digits
// and en-US grouping, e.g. 1,234.50. The product is rounded in decimal before printing.
func Format(coins, pricePerCoin float64, info Info) string {
	v := decimal.NewFromFloat(coins).Mul(decimal.NewFromFloat(pricePerCoin)).Round(int32(info.Scale))
	return printer.Sprint(number.Decimal(v.InexactFloat64(), number.Scale(info.Scale)))
}
