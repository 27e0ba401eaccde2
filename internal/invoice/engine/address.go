package engine

import (
	"fmt"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

// SetShipSame toggles shipping-equals-billing. Turning it on copies every
// billing field into shipping; turning it off keeps the last mirrored values.
func SetShipSame(state domain.Invoice, flag bool) domain.Invoice {
	next := state
	next.ShipToBillSame = flag
	if flag {
		next.Shipping = next.Billing
	}
	return next
}

// SetBillingField updates a billing field and, while mirroring is on, the
// matching shipping field. Editing the name also renumbers the invoice.
func SetBillingField(state domain.Invoice, field domain.PartyField, value string) (domain.Invoice, error) {
	if !field.Valid() {
		return state, fmt.Errorf("%w: billing field %q", domain.ErrUnknownField, field)
	}

	next := state
	next.Billing = next.Billing.With(field, value)
	if next.ShipToBillSame {
		next.Shipping = next.Shipping.With(field, value)
	}
	if field == domain.PartyFieldName {
		next = OnCustomerNameChange(next, value)
	}
	return next, nil
}

// SetShippingField edits shipping directly. It is not blocked while mirroring
// is on; the presentation layer disables those inputs.
func SetShippingField(state domain.Invoice, field domain.PartyField, value string) (domain.Invoice, error) {
	if !field.Valid() {
		return state, fmt.Errorf("%w: shipping field %q", domain.ErrUnknownField, field)
	}

	next := state
	next.Shipping = next.Shipping.With(field, value)
	return next, nil
}
