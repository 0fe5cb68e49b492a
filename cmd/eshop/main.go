package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/migration"
	"github.com/smallbiznis/eshop/internal/observability"
	"github.com/smallbiznis/eshop/internal/server"
	"github.com/smallbiznis/eshop/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Suppliers, orders, line items, audit, cache, events and the HTTP listener.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
