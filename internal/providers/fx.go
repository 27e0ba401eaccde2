package providers

import (
	"github.com/smallbiznis/invoicer/internal/providers/pdf"
	"github.com/smallbiznis/invoicer/internal/providers/redisclient"
	"github.com/smallbiznis/invoicer/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	redisclient.Module,
	pdf.Module,
	storage.Module,
)
