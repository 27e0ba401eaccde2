// Package domain contains the invoice aggregate edited by the recomputation engine.
package domain

import "strings"

// DefaultInvoiceSeed is used when neither the invoice number nor the stored seed yields one.
const DefaultInvoiceSeed = "7284"

// PaymentStatus represents the payment state of an invoice.
type PaymentStatus string

const (
	PaymentStatusDue     PaymentStatus = "due"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusDue, PaymentStatusPartial, PaymentStatusPaid:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus normalizes raw input into a PaymentStatus.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Currency is an ISO currency code supported for display.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyINR Currency = "INR"
	CurrencyCNY Currency = "CNY"
)

// SupportedCurrencies lists currencies in display order.
var SupportedCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyJPY,
	CurrencyCAD,
	CurrencyAUD,
	CurrencyINR,
	CurrencyCNY,
}

// ParseCurrency normalizes raw input into a supported Currency.
func ParseCurrency(raw string) (Currency, error) {
	code := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range SupportedCurrencies {
		if c == code {
			return c, nil
		}
	}
	return "", ErrUnsupportedCurrency
}

// PartyField names one of the contact fields shared by billing and shipping.
type PartyField string

const (
	PartyFieldName    PartyField = "name"
	PartyFieldAddress PartyField = "address"
	PartyFieldPhone   PartyField = "phone"
	PartyFieldEmail   PartyField = "email"
)

// PartyFields lists every contact field.
var PartyFields = []PartyField{PartyFieldName, PartyFieldAddress, PartyFieldPhone, PartyFieldEmail}

// Valid reports whether f is a known contact field.
func (f PartyField) Valid() bool {
	switch f {
	case PartyFieldName, PartyFieldAddress, PartyFieldPhone, PartyFieldEmail:
		return true
	default:
		return false
	}
}

// Party is a contact block on the invoice.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Get returns the value of field.
func (p Party) Get(field PartyField) string {
	switch field {
	case PartyFieldName:
		return p.Name
	case PartyFieldAddress:
		return p.Address
	case PartyFieldPhone:
		return p.Phone
	case PartyFieldEmail:
		return p.Email
	default:
		return ""
	}
}

// With returns a copy of p with field set to value.
func (p Party) With(field PartyField, value string) Party {
	switch field {
	case PartyFieldName:
		p.Name = value
	case PartyFieldAddress:
		p.Address = value
	case PartyFieldPhone:
		p.Phone = value
	case PartyFieldEmail:
		p.Email = value
	}
	return p
}

// ItemField names an editable line item field.
type ItemField string

const (
	ItemFieldDescription ItemField = "description"
	ItemFieldQuantity    ItemField = "quantity"
	ItemFieldUnitPrice   ItemField = "unitPrice"
)

// Valid reports whether f is an editable item field.
func (f ItemField) Valid() bool {
	switch f {
	case ItemFieldDescription, ItemFieldQuantity, ItemFieldUnitPrice:
		return true
	default:
		return false
	}
}

// LineItem represents a line on an invoice. Total is derived.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// Invoice is the aggregate owned by one editing session.
// Subtotal, Tax, Total, AmountDue and InvoiceNumber are derived by the engine.
type Invoice struct {
	InvoiceNumberSeed string `json:"invoiceNumberSeed"`
	InvoiceNumber     string `json:"invoiceNumber"`
	InvoiceDate       string `json:"invoiceDate"`

	Company     Party  `json:"company"`
	CompanyLogo string `json:"companyLogo,omitempty"`

	Billing        Party `json:"billing"`
	Shipping       Party `json:"shipping"`
	ShipToBillSame bool  `json:"shipToBillSame"`

	Currency      Currency `json:"currency"`
	PaymentMode   string   `json:"paymentMode"`
	TransactionID string   `json:"transactionId"`

	Items []LineItem `json:"items"`

	TaxRatePercent float64 `json:"taxRatePercent"`
	Discount       float64 `json:"discount"`
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`

	PaymentStatus PaymentStatus `json:"paymentStatus"`
	AmountPaid    float64       `json:"amountPaid"`
	AmountDue     float64       `json:"amountDue"`

	Notes            string `json:"notes"`
	DeliveryTimeline string `json:"deliveryTimeline"`
	WarrantyInfo     string `json:"warrantyInfo"`
}

// Clone returns a copy that shares no mutable state with inv.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.Items != nil {
		out.Items = make([]LineItem, len(inv.Items))
		copy(out.Items, inv.Items)
	}
	return out
}

// FindItem returns the index of the item with id, or -1.
func (inv Invoice) FindItem(id string) int {
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Defaults seeds freshly created invoices.
type Defaults struct {
	Seed             string
	Currency         Currency
	PaymentMode      string
	Company          Party
	Notes            string
	DeliveryTimeline string
	WarrantyInfo     string
}
