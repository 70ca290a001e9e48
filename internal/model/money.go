package model

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits stored for currency.
const MoneyPlaces = 2

// MoneyIntegerDigits is the number of whole-unit digits a NUMERIC(18,2)
// column holds.
const MoneyIntegerDigits = 16

var moneyLimit = decimal.New(1, MoneyIntegerDigits)

// MoneyFits reports whether d's whole part fits in MoneyIntegerDigits.
func MoneyFits(d decimal.Decimal) bool {
	return d.Abs().LessThan(moneyLimit)
}

// RoundMoney rounds half away from zero to the currency unit.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SumMoney adds amounts without leaving fixed-point.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
