package domain

import (
	"math"

	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
)

// MaxTotalAmount bounds total_amount and total_tax of one order.
const MaxTotalAmount = 1e18

var maxTotalAmount = decimal.NewFromFloat(MaxTotalAmount)

type Totals struct {
	Quantity int64
	Amount   float64
	Tax      float64
}

// ComputeTotals sums quantity, line total and tax over items.
// Amounts are added as decimals so 10.1 + 0.2 stays 10.3.
func ComputeTotals(items []lineitemdomain.LineItem) Totals {
	var (
		quantity int64
		amount   = decimal.Zero
		tax      = decimal.Zero
	)
	for _, item := range items {
		quantity += item.Quantity
		amount = amount.Add(item.LineTotalDecimal())
		tax = tax.Add(decimal.NewFromFloat(item.TaxAmount))
	}
	return Totals{
		Quantity: quantity,
		Amount:   amount.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
	}
}

// CheckTotals reports whether the totals of items fit the order columns.
// Items must already be individually valid.
func CheckTotals(items []lineitemdomain.Input) error {
	var (
		quantity int64
		amount   = decimal.Zero
	)
	for _, in := range items {
		if in.Quantity > math.MaxInt64-quantity {
			return ErrQuantityOutOfRange
		}
		quantity += in.Quantity

		amount = amount.Add(decimal.NewFromFloat(in.PriceWithoutTax)).Add(decimal.NewFromFloat(in.TaxAmount))
	}
	if amount.GreaterThan(maxTotalAmount) {
		return ErrAmountOutOfRange
	}
	return nil
}
