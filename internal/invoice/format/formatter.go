package format

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

const (
	inputDateLayout   = "2006-01-02"
	displayDateLayout = "January 2, 2006"
)

var currencySymbols = map[domain.Currency]string{
	domain.CurrencyUSD: "$",
	domain.CurrencyEUR: "€",
	domain.CurrencyGBP: "£",
	domain.CurrencyJPY: "¥",
	domain.CurrencyCAD: "C$",
	domain.CurrencyAUD: "A$",
	domain.CurrencyINR: "₹",
	domain.CurrencyCNY: "¥",
}

// Symbol returns the display symbol of currency. Unknown codes render as "$".
func Symbol(currency domain.Currency) string {
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol
	}
	return "$"
}

// Money formats amount as symbol followed by the amount fixed to two decimals.
//
// This function is PURE:
// - No locale logic
// - No currency conversion
// - Negative amounts keep their sign after the symbol ("$-5.00")
// - NaN and infinities render as zero
func Money(currency domain.Currency, amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	return Symbol(currency) + decimal.NewFromFloat(amount).StringFixed(2)
}

// Percent formats a tax rate without trailing zeros ("8.25", "10").
func Percent(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 0
	}
	return decimal.NewFromFloat(rate).String()
}

// DisplayDate renders a YYYY-MM-DD date as "January 2, 2006".
// Values that do not parse are returned unchanged.
func DisplayDate(raw string) string {
	t, err := time.Parse(inputDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Format(displayDateLayout)
}

// ExportFilename returns the download name of an exported invoice.
func ExportFilename(invoiceNumber string) string {
	name := strings.NewReplacer("/", "-", "\\", "-", "\"", "").Replace(invoiceNumber)
	return "invoice-" + name + ".pdf"
}
