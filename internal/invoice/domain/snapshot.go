package domain

import (
	"encoding/json"
	"fmt"
)

// legacySnapshot is the flat shape written by earlier versions of the editor.
type legacySnapshot struct {
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	CompanyPhone   string `json:"companyPhone"`
	CompanyEmail   string `json:"companyEmail"`

	CustomerName    string `json:"customerName"`
	CustomerAddress string `json:"customerAddress"`
	CustomerPhone   string `json:"customerPhone"`
	CustomerEmail   string `json:"customerEmail"`

	ShippingName    string `json:"shippingName"`
	ShippingAddress string `json:"shippingAddress"`
	ShippingPhone   string `json:"shippingPhone"`
	ShippingEmail   string `json:"shippingEmail"`

	TaxRate *float64 `json:"taxRate"`
}

// EncodeSnapshot serializes an invoice for a template store.
func EncodeSnapshot(inv Invoice) ([]byte, error) {
	return json.Marshal(inv)
}

// DecodeSnapshot parses a stored snapshot of any known shape.
// Missing fields stay zero; the engine's Normalize fills them in.
func DecodeSnapshot(data []byte) (Invoice, error) {
	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return Invoice{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var legacy legacySnapshot
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Invoice{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	inv.Company = fillParty(inv.Company, Party{
		Name:    legacy.CompanyName,
		Address: legacy.CompanyAddress,
		Phone:   legacy.CompanyPhone,
		Email:   legacy.CompanyEmail,
	})
	inv.Billing = fillParty(inv.Billing, Party{
		Name:    legacy.CustomerName,
		Address: legacy.CustomerAddress,
		Phone:   legacy.CustomerPhone,
		Email:   legacy.CustomerEmail,
	})
	inv.Shipping = fillParty(inv.Shipping, Party{
		Name:    legacy.ShippingName,
		Address: legacy.ShippingAddress,
		Phone:   legacy.ShippingPhone,
		Email:   legacy.ShippingEmail,
	})
	if legacy.TaxRate != nil && inv.TaxRatePercent == 0 {
		inv.TaxRatePercent = *legacy.TaxRate
	}

	return inv, nil
}

func fillParty(current, legacy Party) Party {
	for _, field := range PartyFields {
		if current.Get(field) == "" {
			current = current.With(field, legacy.Get(field))
		}
	}
	return current
}
