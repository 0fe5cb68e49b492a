package migration

import (
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, dbCfg db.Config, cfg config.Config, log *zap.Logger) error {
		if !cfg.MigrateOnStart {
			log.Info("schema migrations skipped")
			return nil
		}

		if dbCfg.Type == db.TypeSQLite {
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB, dbCfg.Type); err != nil {
			return err
		}
		log.Info("schema migrations applied", zap.String("dialect", dbCfg.Type))
		return nil
	}),
)
