package model

import "github.com/shopspring/decimal"

// Scales of the numeric columns: money is numeric(14,2), quantities
// numeric(12,3).
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 3
)

// LineSubtotal is quantity times unit price rounded to the money scale, so
// a header total summed from subtotals matches what the detail rows store.
func LineSubtotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(MoneyScale)
}

// FitsScale reports whether d has at most scale decimal places.
func FitsScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Truncate(scale))
}

func checkQuantity(field string, qty decimal.Decimal) error {
	if !FitsScale(qty, QuantityScale) {
		return Invalid(field, "Jumlah maksimal 3 angka desimal")
	}
	return nil
}

func checkMoney(field string, v decimal.Decimal) error {
	if !FitsScale(v, MoneyScale) {
		return Invalid(field, "Nominal maksimal 2 angka desimal")
	}
	return nil
}
