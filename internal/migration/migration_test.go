package migration

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"gorm.io/gorm"
)

func TestAutoMigrateSeedsOrderNumberOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := AutoMigrate(conn); err != nil {
			t.Fatalf("auto migrate run %d: %v", i, err)
		}
	}

	var rows []orderdomain.OrderNumberSequence
	if err := conn.Find(&rows).Error; err != nil {
		t.Fatalf("read sequences: %v", err)
	}
	if len(rows) != 1 || rows[0].NextValue != 1 {
		t.Fatalf("expected one sequence row at 1, got %+v", rows)
	}
}

func TestEmbeddedMigrationsPerDialect(t *testing.T) {
	for _, dialect := range []string{"postgres", "mysql"} {
		entries, err := embeddedMigrations.ReadDir(migrationsDir + "/" + dialect)
		if err != nil {
			t.Fatalf("read %s migrations: %v", dialect, err)
		}
		if len(entries) < 2 {
			t.Fatalf("expected up and down files for %s, got %d", dialect, len(entries))
		}
	}
}

func TestRunMigrationsRejectsSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:reject?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := RunMigrations(sqlDB, "sqlite"); err == nil {
		t.Fatal("expected error for sqlite dialect")
	}
}
