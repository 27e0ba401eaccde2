package invoice

import (
	"testing"
	"time"

	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewEngineUsesConfiguredDefaults(t *testing.T) {
	defaults := config.DefaultInvoiceDefaults()
	defaults.Seed = "9001"
	defaults.Currency = "GBP"
	defaults.Company = config.CompanyConfig{Name: "Initech", Email: "billing@initech.test"}
	defaults.Notes = "Thanks!"

	inv := NewEngine(config.NewStaticDefaultsHolder(defaults)).NewInvoice(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "9001", inv.InvoiceNumber)
	assert.Equal(t, domain.CurrencyGBP, inv.Currency)
	assert.Equal(t, "Initech", inv.Company.Name)
	assert.Equal(t, "billing@initech.test", inv.Company.Email)
	assert.Equal(t, "Thanks!", inv.Notes)
	assert.Equal(t, "2026-03-14", inv.InvoiceDate)
	assert.Len(t, inv.Items, 1)
}
