// Package engine keeps every derived field of an invoice consistent.
//
// All operations are pure: they take an invoice by value and return the next
// one. The caller serializes reductions on a given invoice.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

const invoiceDateLayout = "2006-01-02"

// IDSource returns a fresh line item id.
type IDSource func() string

// DefaultsSource returns the defaults applied to new and normalized invoices.
type DefaultsSource func() domain.Defaults

// Engine reduces intents over invoices.
type Engine struct {
	newID    IDSource
	defaults DefaultsSource
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDSource replaces the ULID item id generator.
func WithIDSource(src IDSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.newID = src
		}
	}
}

// WithDefaults sets where invoice defaults come from.
func WithDefaults(src DefaultsSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.defaults = src
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		newID:    func() string { return strings.ToLower(ulid.Make().String()) },
		defaults: func() domain.Defaults { return domain.Defaults{} },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reduce applies one intent and returns the next consistent state.
// Malformed intents return an error together with the unchanged state.
func (e *Engine) Reduce(state domain.Invoice, intent domain.Intent) (domain.Invoice, error) {
	switch intent.Kind {
	case domain.IntentUpdateItem:
		return UpdateItem(state, intent.ItemID, domain.ItemField(intent.Field), intent.Value)
	case domain.IntentAddItem:
		return AddItem(state, e.newID()), nil
	case domain.IntentRemoveItem:
		return RemoveItem(state, intent.ItemID), nil
	case domain.IntentSetTaxRate:
		return SetTaxRate(state, intent.Value), nil
	case domain.IntentSetDiscount:
		return SetDiscount(state, intent.Value), nil
	case domain.IntentSetStatus:
		status, err := domain.ParsePaymentStatus(toText(intent.Value))
		if err != nil {
			return state, err
		}
		return SetStatus(state, status)
	case domain.IntentSetAmountPaid:
		return SetAmountPaid(state, intent.Value), nil
	case domain.IntentSetBillingField:
		return SetBillingField(state, domain.PartyField(intent.Field), toText(intent.Value))
	case domain.IntentSetShippingField:
		return SetShippingField(state, domain.PartyField(intent.Field), toText(intent.Value))
	case domain.IntentSetShipSame:
		return SetShipSame(state, toFlag(intent.Value)), nil
	case domain.IntentSetCustomerName:
		return SetBillingField(state, domain.PartyFieldName, toText(intent.Value))
	case domain.IntentSetField:
		return setField(state, domain.InvoiceField(intent.Field), toText(intent.Value))
	case domain.IntentLoadSnapshot:
		if intent.Snapshot == nil {
			return state, domain.ErrInvalidSnapshot
		}
		return e.Normalize(*intent.Snapshot), nil
	default:
		return state, fmt.Errorf("%w: %q", domain.ErrUnknownIntent, intent.Kind)
	}
}

func setField(state domain.Invoice, field domain.InvoiceField, value string) (domain.Invoice, error) {
	next := state
	switch field {
	case domain.FieldCurrency:
		currency, err := domain.ParseCurrency(value)
		if err != nil {
			return state, err
		}
		next.Currency = currency
	case domain.FieldPaymentMode:
		next.PaymentMode = value
	case domain.FieldTransactionID:
		next.TransactionID = value
	case domain.FieldInvoiceDate:
		next.InvoiceDate = value
	case domain.FieldNotes:
		next.Notes = value
	case domain.FieldDeliveryTimeline:
		next.DeliveryTimeline = value
	case domain.FieldWarrantyInfo:
		next.WarrantyInfo = value
	case domain.FieldCompanyName:
		next.Company.Name = value
	case domain.FieldCompanyAddress:
		next.Company.Address = value
	case domain.FieldCompanyPhone:
		next.Company.Phone = value
	case domain.FieldCompanyEmail:
		next.Company.Email = value
	case domain.FieldCompanyLogo:
		next.CompanyLogo = value
	default:
		return state, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	return next, nil
}

// NewInvoice builds the initial invoice of a session: one empty item, zero
// totals, status due, dated issuedOn.
func (e *Engine) NewInvoice(issuedOn time.Time) domain.Invoice {
	defaults := e.defaults()
	seed := seedOrDefault(defaults.Seed)

	inv := domain.Invoice{
		InvoiceNumberSeed: seed,
		InvoiceNumber:     seed,
		InvoiceDate:       issuedOn.Format(invoiceDateLayout),
		Company:           defaults.Company,
		Currency:          currencyOrDefault(defaults.Currency, domain.CurrencyUSD),
		PaymentMode:       defaults.PaymentMode,
		Items:             []domain.LineItem{newLineItem(e.newID())},
		PaymentStatus:     domain.PaymentStatusDue,
		Notes:             defaults.Notes,
		DeliveryTimeline:  defaults.DeliveryTimeline,
		WarrantyInfo:      defaults.WarrantyInfo,
	}
	return RecomputeAggregates(inv)
}

// Normalize turns a stored or partial snapshot into a consistent invoice.
// Missing fields take defaults, items get ids, inputs are clamped and every
// derived field is recomputed.
func (e *Engine) Normalize(snapshot domain.Invoice) domain.Invoice {
	defaults := e.defaults()
	next := snapshot.Clone()

	if next.InvoiceNumberSeed == "" {
		next.InvoiceNumberSeed = SeedOf(next.InvoiceNumber, seedOrDefault(defaults.Seed))
	}
	if next.InvoiceNumber == "" {
		next.InvoiceNumber = next.InvoiceNumberSeed
		next = OnCustomerNameChange(next, next.Billing.Name)
	}

	next.Currency = currencyOrDefault(next.Currency, currencyOrDefault(defaults.Currency, domain.CurrencyUSD))
	if status, err := domain.ParsePaymentStatus(string(next.PaymentStatus)); err == nil {
		next.PaymentStatus = status
	} else {
		next.PaymentStatus = domain.PaymentStatusDue
	}
	next.AmountPaid = clampAmount(next.AmountPaid, maxMoneyAmount)

	if len(next.Items) == 0 {
		next.Items = []domain.LineItem{newLineItem(e.newID())}
	}
	seen := make(map[string]struct{}, len(next.Items))
	for i := range next.Items {
		item := &next.Items[i]
		if _, dup := seen[item.ID]; item.ID == "" || dup {
			item.ID = e.newID()
		}
		seen[item.ID] = struct{}{}

		item.Quantity = min(max(item.Quantity, 0), maxQuantity)
		item.UnitPrice = clampAmount(item.UnitPrice, maxUnitPrice)
		item.Total = lineTotal(*item)
	}

	if next.ShipToBillSame {
		next.Shipping = next.Billing
	}
	return RecomputeAggregates(next)
}

func seedOrDefault(seed string) string {
	if seed = strings.TrimSpace(seed); seed != "" {
		return seed
	}
	return domain.DefaultInvoiceSeed
}

func currencyOrDefault(raw, fallback domain.Currency) domain.Currency {
	if c, err := domain.ParseCurrency(string(raw)); err == nil {
		return c
	}
	return fallback
}
