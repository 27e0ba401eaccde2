package config

import "go.uber.org/fx"

// Module expects Config to be supplied by the caller; it adds the hot-reloaded
// invoice defaults.
var Module = fx.Module("config",
	fx.Provide(NewInvoiceDefaultsHolder),
)
