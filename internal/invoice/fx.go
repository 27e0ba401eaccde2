package invoice

import (
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/engine"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.engine",
	fx.Provide(NewEngine),
)

// NewEngine builds the recomputation engine. Defaults are read on every new
// or normalized invoice, so edits to invoicer.yml apply without a restart.
func NewEngine(holder *config.InvoiceDefaultsHolder) *engine.Engine {
	return engine.New(engine.WithDefaults(func() domain.Defaults {
		return DomainDefaults(holder.Get())
	}))
}

// DomainDefaults converts configured defaults into engine defaults.
func DomainDefaults(d config.InvoiceDefaults) domain.Defaults {
	return domain.Defaults{
		Seed:        d.Seed,
		Currency:    domain.Currency(d.Currency),
		PaymentMode: d.PaymentMode,
		Company: domain.Party{
			Name:    d.Company.Name,
			Address: d.Company.Address,
			Phone:   d.Company.Phone,
			Email:   d.Company.Email,
		},
		Notes:            d.Notes,
		DeliveryTimeline: d.DeliveryTimeline,
		WarrantyInfo:     d.WarrantyInfo,
	}
}
