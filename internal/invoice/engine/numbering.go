package engine

import (
	"strings"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

const numberSeparator = " - "

// SeedOf extracts the numeric seed from a display invoice number, i.e. the
// part before the first separator. fallback is returned when that part is empty.
func SeedOf(number, fallback string) string {
	seed, _, _ := strings.Cut(number, numberSeparator)
	if seed == "" {
		return fallback
	}
	return seed
}

// ComposeNumber joins seed and customer name into a display invoice number.
func ComposeNumber(seed, name string) string {
	return seed + numberSeparator + name
}

// OnCustomerNameChange renumbers the invoice as "<seed> - <name>". An empty
// name leaves the number as it is. The seed is always re-extracted, so
// successive renames never accumulate.
func OnCustomerNameChange(state domain.Invoice, name string) domain.Invoice {
	if name == "" {
		return state
	}

	fallback := state.InvoiceNumberSeed
	if fallback == "" {
		fallback = domain.DefaultInvoiceSeed
	}

	next := state
	next.InvoiceNumber = ComposeNumber(SeedOf(state.InvoiceNumber, fallback), name)
	return next
}
