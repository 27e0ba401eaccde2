package session

import (
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(NewManager),
	fx.Provide(func(m *Manager) domain.Service { return m }),
)
