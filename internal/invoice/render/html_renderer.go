package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.InvoiceNumber}}</title>
  <style>
    :root {
      --primary: {{.Theme.PrimaryColor}};
      --font: "{{.Theme.FontFamily}}", -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 0;
      font-family: var(--font);
      color: #1a1f36;
      background: #ffffff;
      -webkit-font-smoothing: antialiased;
    }
    .invoice-card {
      width: 794px;
      margin: 0 auto;
      padding: 48px;
    }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
      margin-bottom: 32px;
    }
    .header-left h1 {
      margin: 0;
      font-size: 28px;
      font-weight: 700;
      color: var(--primary);
      letter-spacing: 1px;
    }
    .company { text-align: right; font-size: 13px; line-height: 1.5; }
    .company strong { font-size: 16px; }
    .company img { max-height: 64px; max-width: 180px; margin-bottom: 8px; }

    .meta-grid {
      display: flex;
      justify-content: space-between;
      gap: 24px;
      margin-bottom: 32px;
    }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 6px;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    .value {
      font-size: 14px;
      line-height: 1.5;
      color: #1a1f36;
    }

    table {
      width: 100%;
      border-collapse: collapse;
      margin-bottom: 24px;
    }
    th {
      text-align: left;
      text-transform: uppercase;
      font-size: 11px;
      color: #ffffff;
      background: var(--primary);
      padding: 10px 8px;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    td {
      padding: 12px 8px;
      border-bottom: 1px solid #e3e8ee;
      font-size: 14px;
      vertical-align: top;
    }
    .td-right { text-align: right; }

    .totals {
      display: flex;
      flex-direction: column;
      align-items: flex-end;
    }
    .total-row {
      display: flex;
      justify-content: space-between;
      width: 280px;
      padding: 6px 0;
      font-size: 14px;
    }
    .total-label { color: #697386; }
    .total-value { text-align: right; font-weight: 500; }
    .total-final {
      border-top: 1px solid #e3e8ee;
      margin-top: 8px;
      padding-top: 8px;
      font-weight: 700;
      font-size: 16px;
    }

    .status {
      display: inline-block;
      padding: 2px 10px;
      border-radius: 12px;
      font-size: 12px;
      font-weight: 600;
    }
    .status-paid { background: #d1fae5; color: #065f46; }
    .status-partial { background: #fef3c7; color: #92400e; }
    .status-due { background: #fee2e2; color: #991b1b; }

    .footer {
      margin-top: 40px;
      font-size: 12px;
      color: #697386;
      border-top: 1px solid #e3e8ee;
      padding-top: 16px;
    }
    .footer p { margin: 0 0 12px 0; white-space: pre-line; }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div class="header-left">
        <h1>INVOICE</h1>
        <div class="label" style="margin-top: 12px;">Invoice number</div>
        <div class="value">{{.Invoice.InvoiceNumber}}</div>
        <div class="label" style="margin-top: 12px;">Date</div>
        <div class="value">{{displayDate .Invoice.InvoiceDate}}</div>
      </div>
      <div class="company">
        {{if .Logo}}<img src="{{.Logo}}" alt="{{.Invoice.Company.Name}}"><br>{{end}}
        <strong>{{.Invoice.Company.Name}}</strong><br>
        {{with .Invoice.Company.Address}}{{.}}<br>{{end}}
        {{with .Invoice.Company.Phone}}{{.}}<br>{{end}}
        {{with .Invoice.Company.Email}}{{.}}{{end}}
      </div>
    </div>

    <div class="meta-grid">
      <div class="col">
        <div class="label">Bill to</div>
        <div class="value">
          <strong>{{.Invoice.Billing.Name}}</strong><br>
          {{with .Invoice.Billing.Address}}{{.}}<br>{{end}}
          {{with .Invoice.Billing.Phone}}{{.}}<br>{{end}}
          {{with .Invoice.Billing.Email}}{{.}}{{end}}
        </div>
      </div>
      <div class="col">
        <div class="label">Ship to</div>
        <div class="value">
          <strong>{{.Invoice.Shipping.Name}}</strong><br>
          {{with .Invoice.Shipping.Address}}{{.}}<br>{{end}}
          {{with .Invoice.Shipping.Phone}}{{.}}<br>{{end}}
          {{with .Invoice.Shipping.Email}}{{.}}{{end}}
        </div>
      </div>
      <div class="col" style="flex: 0 0 200px;">
        <div class="label">Payment</div>
        <div class="value">
          <span class="status status-{{.Invoice.PaymentStatus}}">{{statusLabel .Invoice.PaymentStatus}}</span><br>
          {{with .Invoice.PaymentMode}}{{.}}<br>{{end}}
          {{with .Invoice.TransactionID}}Txn: {{.}}{{end}}
        </div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 50%;">Description</th>
          <th class="td-right">Qty</th>
          <th class="td-right">Unit Price</th>
          <th class="td-right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Invoice.Items}}
        <tr>
          <td>{{.Description}}</td>
          <td class="td-right">{{.Quantity}}</td>
          <td class="td-right">{{money .UnitPrice}}</td>
          <td class="td-right" style="font-weight: 500;">{{money .Total}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row">
        <span class="total-label">Subtotal</span>
        <span class="total-value">{{money .Invoice.Subtotal}}</span>
      </div>
      <div class="total-row">
        <span class="total-label">Tax ({{percent .Invoice.TaxRatePercent}}%)</span>
        <span class="total-value">{{money .Invoice.Tax}}</span>
      </div>
      {{if gt .Invoice.Discount 0.0}}
      <div class="total-row">
        <span class="total-label">Discount</span>
        <span class="total-value">-{{money .Invoice.Discount}}</span>
      </div>
      {{end}}
      <div class="total-row total-final">
        <span class="total-label" style="color: #1a1f36;">Total</span>
        <span class="total-value">{{money .Invoice.Total}}</span>
      </div>
      <div class="total-row">
        <span class="total-label">Amount paid</span>
        <span class="total-value">{{money .Invoice.AmountPaid}}</span>
      </div>
      <div class="total-row">
        <span class="total-label">Amount due</span>
        <span class="total-value">{{money .Invoice.AmountDue}}</span>
      </div>
    </div>

    {{if or .Invoice.Notes .Invoice.DeliveryTimeline .Invoice.WarrantyInfo}}
    <div class="footer">
      {{with .Invoice.Notes}}<div class="label">Notes</div><p>{{.}}</p>{{end}}
      {{with .Invoice.DeliveryTimeline}}<div class="label">Delivery timeline</div><p>{{.}}</p>{{end}}
      {{with .Invoice.WarrantyInfo}}<div class="label">Warranty</div><p>{{.}}</p>{{end}}
    </div>
    {{end}}
  </div>
</body>
</html>
`

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontFamilyFilter = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)
	logoDataPattern  = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp);base64,[A-Za-z0-9+/=]+$`)
)

const (
	defaultPrimaryColor = "#1f2937"
	defaultFontFamily   = "Inter"
)

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(baseFuncs()).Parse(invoiceHTMLTemplate)),
	}
}

type view struct {
	Invoice domain.Invoice
	Theme   Theme
	Logo    template.URL
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	theme := Theme{
		PrimaryColor: sanitizeColor(input.Theme.PrimaryColor),
		FontFamily:   sanitizeFont(input.Theme.FontFamily),
	}

	currency := input.Invoice.Currency
	tpl, err := r.tpl.Clone()
	if err != nil {
		return "", err
	}
	tpl.Funcs(template.FuncMap{
		"money": func(amount float64) string { return format.Money(currency, amount) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, view{
		Invoice: input.Invoice,
		Theme:   theme,
		Logo:    sanitizeLogo(input.Invoice.CompanyLogo),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"money":       func(amount float64) string { return format.Money(domain.CurrencyUSD, amount) },
		"percent":     format.Percent,
		"displayDate": format.DisplayDate,
		"statusLabel": StatusLabel,
	}
}

// StatusLabel returns the human label of a payment status.
func StatusLabel(status domain.PaymentStatus) string {
	switch status {
	case domain.PaymentStatusPaid:
		return "Paid"
	case domain.PaymentStatusPartial:
		return "Partially paid"
	default:
		return "Due"
	}
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return defaultPrimaryColor
}

func sanitizeFont(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && fontFamilyFilter.MatchString(trimmed) {
		return trimmed
	}
	return defaultFontFamily
}

// sanitizeLogo only lets base64 image data URLs through; html/template would
// otherwise replace them with "#ZgotmplZ".
func sanitizeLogo(value string) template.URL {
	if logoDataPattern.MatchString(value) {
		return template.URL(value)
	}
	return ""
}
