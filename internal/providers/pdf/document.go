package pdf

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
)

// InvoiceData is the preformatted view shared by the invoice and receipt layouts.
type InvoiceData struct {
	OrgName    string
	OrgAddress string
	OrgPhone   string
	OrgEmail   string
	Logo       *Logo

	InvoiceNumber string
	IssueDate     string
	StatusLabel   string
	PaymentMode   string
	TransactionID string

	BillToName    string
	BillToAddress string
	BillToEmail   string

	ShipToName    string
	ShipToAddress string

	Items []InvoiceItem

	Subtotal   string
	TaxLabel   string
	Tax        string
	Discount   string
	Total      string
	AmountPaid string
	AmountDue  string

	Notes            string
	DeliveryTimeline string
	WarrantyInfo     string
}

type InvoiceItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

// Logo is a decoded company logo.
type Logo struct {
	Data      []byte
	Extension extension.Type
}

func newInvoiceData(inv domain.Invoice) InvoiceData {
	money := func(v float64) string { return format.Money(inv.Currency, v) }

	data := InvoiceData{
		OrgName:          inv.Company.Name,
		OrgAddress:       inv.Company.Address,
		OrgPhone:         inv.Company.Phone,
		OrgEmail:         inv.Company.Email,
		InvoiceNumber:    inv.InvoiceNumber,
		IssueDate:        format.DisplayDate(inv.InvoiceDate),
		StatusLabel:      render.StatusLabel(inv.PaymentStatus),
		PaymentMode:      inv.PaymentMode,
		TransactionID:    inv.TransactionID,
		BillToName:       inv.Billing.Name,
		BillToAddress:    inv.Billing.Address,
		BillToEmail:      inv.Billing.Email,
		ShipToName:       inv.Shipping.Name,
		ShipToAddress:    inv.Shipping.Address,
		Subtotal:         money(inv.Subtotal),
		TaxLabel:         fmt.Sprintf("Tax (%s%%)", format.Percent(inv.TaxRatePercent)),
		Tax:              money(inv.Tax),
		Total:            money(inv.Total),
		AmountPaid:       money(inv.AmountPaid),
		AmountDue:        money(inv.AmountDue),
		Notes:            inv.Notes,
		DeliveryTimeline: inv.DeliveryTimeline,
		WarrantyInfo:     inv.WarrantyInfo,
	}
	if inv.Discount > 0 {
		data.Discount = "-" + money(inv.Discount)
	}
	if logo, err := DecodeLogo(inv.CompanyLogo); err == nil {
		data.Logo = logo
	}

	for _, item := range inv.Items {
		data.Items = append(data.Items, InvoiceItem{
			Description: item.Description,
			Qty:         item.Quantity,
			UnitPrice:   money(item.UnitPrice),
			Amount:      money(item.Total),
		})
	}
	return data
}

// DecodeLogo parses a base64 image data URL.
func DecodeLogo(dataURL string) (*Logo, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("logo is not a base64 image data url")
	}

	var ext extension.Type
	switch strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64") {
	case "png":
		ext = extension.Png
	case "jpeg":
		ext = extension.Jpeg
	case "jpg":
		ext = extension.Jpg
	default:
		return nil, fmt.Errorf("unsupported logo type %q", header)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return &Logo{Data: raw, Extension: ext}, nil
}
