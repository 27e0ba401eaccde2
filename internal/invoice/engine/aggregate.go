package engine

import "github.com/smallbiznis/invoicer/internal/invoice/domain"

// RecomputeAggregates derives subtotal, tax and total from the items, tax rate
// and discount, then re-derives the amount due without touching payment status.
//
// Total is not clamped: a discount larger than subtotal+tax yields a negative total.
func RecomputeAggregates(state domain.Invoice) domain.Invoice {
	next := state
	next.TaxRatePercent = clampAmount(next.TaxRatePercent, maxTaxRate)
	next.Discount = clampAmount(next.Discount, maxMoneyAmount)

	var subtotal float64
	for _, item := range next.Items {
		subtotal += item.Total
	}

	next.Subtotal = subtotal
	next.Tax = subtotal * next.TaxRatePercent / 100
	next.Total = next.Subtotal + next.Tax - next.Discount

	return ReconcileTotal(next)
}

// SetTaxRate replaces the tax rate percentage and re-aggregates.
func SetTaxRate(state domain.Invoice, value any) domain.Invoice {
	next := state
	next.TaxRatePercent = toAmount(value, maxTaxRate)
	return RecomputeAggregates(next)
}

// SetDiscount replaces the absolute discount and re-aggregates.
func SetDiscount(state domain.Invoice, value any) domain.Invoice {
	next := state
	next.Discount = toAmount(value, maxMoneyAmount)
	return RecomputeAggregates(next)
}
