package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/eshop/internal/audit/domain"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed sql
var embeddedMigrations embed.FS

const migrationsDir = "sql"

// RunMigrations applies the embedded SQL for the given dialect.
// SQLite has no SQL set; use AutoMigrate instead.
func RunMigrations(conn *sql.DB, dialect string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, path.Join(migrationsDir, dialect))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case db.TypePostgres:
		driver, err = migratepostgres.WithInstance(conn, &migratepostgres.Config{})
	case db.TypeMySQL:
		driver, err = migratemysql.WithInstance(conn, &migratemysql.Config{})
	default:
		return fmt.Errorf("no sql migrations for dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the models and seeds the order number
// counter. Used for SQLite deployments and tests.
func AutoMigrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&supplierdomain.Supplier{},
		&orderdomain.Order{},
		&lineitemdomain.LineItem{},
		&orderdomain.OrderNumberSequence{},
		&auditdomain.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	seq := orderdomain.OrderNumberSequence{
		Name:      orderdomain.OrderNumberSequenceName,
		NextValue: 1,
		UpdatedAt: time.Now().UTC(),
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error
}
