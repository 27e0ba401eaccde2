package pdf

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, inv domain.Invoice) (io.Reader, error) {
	data := newInvoiceData(inv)
	m := newDocument()

	addHeader(m, "Invoice", data)

	// Invoice Meta
	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Status: "+data.StatusLabel, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Payment mode: "+data.PaymentMode, props.Text{Top: 0}),
			text.New("Transaction: "+data.TransactionID, props.Text{Top: 4}),
		),
	)

	addParties(m, data)

	// Summary Title
	m.AddRow(15,
		text.NewCol(12, data.AmountDue+" due", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	addItems(m, data)
	addTotals(m, data)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount paid", props.Text{Size: 9}),
		text.NewCol(2, data.AmountPaid, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.AmountDue, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	addFooter(m, data)

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	return maroto.New(cfg)
}

func addHeader(m core.Maroto, title string, data InvoiceData) {
	titleCol := text.NewCol(6, title, props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Left,
	})
	if data.Logo == nil {
		m.AddRow(20, titleCol, col.New(6))
		return
	}

	m.AddRow(30,
		titleCol,
		col.New(3),
		image.NewFromBytesCol(3, data.Logo.Data, data.Logo.Extension, props.Rect{
			Center:  true,
			Percent: 80,
		}),
	)
}

func addParties(m core.Maroto, data InvoiceData) {
	m.AddRow(40,
		col.New(4).Add(
			text.New(data.OrgName, props.Text{Style: fontstyle.Bold}),
			text.New(data.OrgAddress, props.Text{Top: 5}),
			text.New(data.OrgPhone, props.Text{Top: 15}),
			text.New(data.OrgEmail, props.Text{Top: 20}),
		),
		col.New(4).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillToName, props.Text{Top: 5}),
			text.New(data.BillToAddress, props.Text{Top: 9}),
			text.New(data.BillToEmail, props.Text{Top: 25}),
		),
		col.New(4).Add(
			text.New("Ship to", props.Text{Style: fontstyle.Bold}),
			text.New(data.ShipToName, props.Text{Top: 5}),
			text.New(data.ShipToAddress, props.Text{Top: 9}),
		),
	)
}

func addItems(m core.Maroto, data InvoiceData) {
	// Table Header
	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range data.Items {
		m.AddRow(12,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, strconv.FormatInt(item.Qty, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func addTotals(m core.Maroto, data InvoiceData) {
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, data.TaxLabel, props.Text{Size: 9}),
		text.NewCol(2, data.Tax, props.Text{Size: 9, Align: align.Right}),
	)
	if data.Discount != "" {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Discount", props.Text{Size: 9}),
			text.NewCol(2, data.Discount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
}

func addFooter(m core.Maroto, data InvoiceData) {
	sections := []struct{ title, body string }{
		{"Notes", data.Notes},
		{"Delivery timeline", data.DeliveryTimeline},
		{"Warranty", data.WarrantyInfo},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		m.AddRow(8, text.NewCol(12, s.title, props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}))
		m.AddRow(12, text.NewCol(12, s.body, props.Text{Size: 9}))
	}
}

func generate(m core.Maroto) (io.Reader, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
