package pricing

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places totals are rounded to.
const MoneyPlaces = 2

var bpsDivisor = decimal.NewFromInt(10000)

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// Fee describes a non-product charge. Only taxable fees join the tax base.
type Fee struct {
	Amount  decimal.Decimal
	Taxable bool
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Fees     decimal.Decimal `json:"fees"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Compute calculates cart totals. Tax is taxBps basis points of the item
// subtotal plus taxable fees, rounded half away from zero to MoneyPlaces.
func Compute(items []Item, fees []Fee, taxBps int) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}

	feeTotal := decimal.Zero
	taxBase := subtotal
	for _, fee := range fees {
		feeTotal = feeTotal.Add(fee.Amount)
		if fee.Taxable {
			taxBase = taxBase.Add(fee.Amount)
		}
	}
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}

	tax := decimal.Zero
	if taxBps > 0 {
		tax = taxBase.Mul(decimal.NewFromInt(int64(taxBps))).Div(bpsDivisor).Round(MoneyPlaces)
	}
	return Summary{
		Subtotal: subtotal,
		Fees:     feeTotal,
		Tax:      tax,
		Total:    subtotal.Add(feeTotal).Add(tax),
	}
}
