// Package migration applies the schema. Postgres and MySQL go through
// versioned SQL migrations; sqlite (local development and tests) uses
// gorm's AutoMigrate since golang-migrate cannot share its connection.
package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/reefward/diveops/internal/audit/domain"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	catalogdomain "github.com/reefward/diveops/internal/catalog/domain"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	ledgerdomain "github.com/reefward/diveops/internal/ledger/domain"
	partydomain "github.com/reefward/diveops/internal/party/domain"
	priceruledomain "github.com/reefward/diveops/internal/pricerule/domain"
	rentaldomain "github.com/reefward/diveops/internal/rental/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var migrations embed.FS

func Run(gdb *gorm.DB, log *zap.Logger) error {
	switch gdb.Dialector.Name() {
	case "sqlite":
		return autoMigrate(gdb)
	default:
		return runVersioned(gdb, log)
	}
}

func runVersioned(gdb *gorm.DB, log *zap.Logger) error {
	source, err := iofs.New(migrations, "sql")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	switch gdb.Dialector.Name() {
	case "postgres":
		driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", driver)
		if err != nil {
			return err
		}
	case "mysql":
		driver, err := migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", source, "mysql", driver)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported dialect %q", gdb.Dialector.Name())
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&partydomain.Organization{},
		&partydomain.Person{},
		&catalogdomain.Item{},
		&contractdomain.Contract{},
		&priceruledomain.PriceRule{},
		&bookingdomain.Site{},
		&bookingdomain.Trip{},
		&bookingdomain.Booking{},
		&rentaldomain.EquipmentRental{},
		&ledgerdomain.Account{},
		&ledgerdomain.Transaction{},
		&ledgerdomain.Entry{},
		&auditdomain.AuditLog{},
	)
}
