package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice"
	"github.com/smallbiznis/invoicer/internal/invoicetemplate"
	"github.com/smallbiznis/invoicer/internal/metricspush"
	"github.com/smallbiznis/invoicer/internal/observability"
	"github.com/smallbiznis/invoicer/internal/providers"
	"github.com/smallbiznis/invoicer/internal/ratelimit"
	"github.com/smallbiznis/invoicer/internal/server"
	"github.com/smallbiznis/invoicer/internal/session"
	"go.uber.org/fx"
)

func main() {
	cfg := config.Load()

	app := fx.New(
		// Core Infrastructure
		fx.Supply(cfg),
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		providers.Module,
		ratelimit.Module,
		metricspush.Module,

		// Functional Domains
		invoice.Module,
		session.Module,
		invoicetemplate.Module(cfg),

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
