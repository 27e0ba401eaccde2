package pdf

import (
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

// GenerateReceipt renders the payment confirmation of a paid invoice. Invoices
// that are not paid fall back to the invoice layout.
func (p *PDFProvider) GenerateReceipt(ctx context.Context, inv domain.Invoice) (io.Reader, error) {
	if inv.PaymentStatus != domain.PaymentStatusPaid {
		return p.GenerateInvoice(ctx, inv)
	}

	data := newInvoiceData(inv)
	m := newDocument()

	addHeader(m, "Receipt", data)

	// Receipt Meta
	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Payment mode: "+data.PaymentMode, props.Text{Top: 8}),
			text.New("Transaction: "+data.TransactionID, props.Text{Top: 12}),
		),
		col.New(6),
	)

	addParties(m, data)

	// Payment Confirmation Title
	m.AddRow(15,
		text.NewCol(12, data.AmountPaid+" paid", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	addItems(m, data)
	addTotals(m, data)
	addFooter(m, data)

	return generate(m)
}
