package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/cache"
	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/events"
	"github.com/smallbiznis/eshop/internal/lineitem"
	"github.com/smallbiznis/eshop/internal/migration"
	"github.com/smallbiznis/eshop/internal/observability"
	"github.com/smallbiznis/eshop/internal/order"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"github.com/smallbiznis/eshop/internal/seed"
	"github.com/smallbiznis/eshop/internal/supplier"
	"github.com/smallbiznis/eshop/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		cache.Module,
		events.Module,
		supplier.Module,
		order.Module,
		lineitem.Module,

		fx.Invoke(populate),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

func populate(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, orders orderdomain.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				_, err := seed.Populate(context.Background(), orders, log.Named("populate"), seed.Options{
					Suppliers:         cfg.Populate.Suppliers,
					OrdersPerSupplier: cfg.Populate.OrdersPerSupplier,
					ItemsPerOrder:     cfg.Populate.ItemsPerOrder,
				})
				if err != nil {
					log.Error("populate failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
