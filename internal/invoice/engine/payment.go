package engine

import (
	"math"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

// SetStatus applies an explicit status change. The status is authoritative and
// the paid amount follows it:
//
//	paid    -> amountPaid = total, amountDue = 0
//	partial -> amountPaid kept,    amountDue = total - amountPaid
//	due     -> amountPaid = 0,     amountDue = total
func SetStatus(state domain.Invoice, status domain.PaymentStatus) (domain.Invoice, error) {
	if !status.Valid() {
		return state, domain.ErrInvalidStatus
	}

	next := state
	next.PaymentStatus = status
	switch status {
	case domain.PaymentStatusPaid:
		next.AmountPaid = nonNegative(next.Total)
	case domain.PaymentStatusDue:
		next.AmountPaid = 0
	}
	next.AmountDue = amountDue(next.PaymentStatus, next.Total, next.AmountPaid)
	return next, nil
}

// SetAmountPaid applies an edit of the paid amount. The status is derived from it.
func SetAmountPaid(state domain.Invoice, value any) domain.Invoice {
	amount := toAmount(value, maxMoneyAmount)

	next := state
	next.AmountPaid = amount
	next.AmountDue = math.Max(0, next.Total-amount)
	switch {
	case amount >= next.Total:
		next.PaymentStatus = domain.PaymentStatusPaid
	case amount > 0:
		next.PaymentStatus = domain.PaymentStatusPartial
	default:
		next.PaymentStatus = domain.PaymentStatusDue
	}
	return next
}

// ReconcileTotal re-derives the amount due after the total changed.
// Status and amount paid are left alone, so a paid invoice keeps its old paid
// amount and shows nothing due.
func ReconcileTotal(state domain.Invoice) domain.Invoice {
	next := state
	next.AmountPaid = clampAmount(next.AmountPaid, maxMoneyAmount)
	next.AmountDue = amountDue(next.PaymentStatus, next.Total, next.AmountPaid)
	return next
}

func amountDue(status domain.PaymentStatus, total, paid float64) float64 {
	if status == domain.PaymentStatusPaid {
		return 0
	}
	return math.Max(0, total-paid)
}
