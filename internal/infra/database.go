package infra

import (
	"fmt"

	"motorplus/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the configured driver and migrates
// the schema. "postgres" is the production driver; "sqlite" serves local
// demos and the package tests.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps transactions
		// serialized and an in-memory database alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table, then applies the checks GORM tags
// cannot express portably.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements for Postgres. Each
// statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ name, sql string }{
		{"chk_parts_stock_non_negative", `ALTER TABLE parts ADD CONSTRAINT chk_parts_stock_non_negative CHECK (stock >= 0)`},
		{"chk_order_items_quantity", `ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity CHECK (quantity > 0)`},
		{"chk_part_usages_quantity", `ALTER TABLE part_usages ADD CONSTRAINT chk_part_usages_quantity CHECK (quantity > 0)`},
		{"chk_supervisions_distinct", `ALTER TABLE supervisions ADD CONSTRAINT chk_supervisions_distinct CHECK (supervisor_id <> supervised_id)`},
		{"chk_invoices_balance", `ALTER TABLE invoices ADD CONSTRAINT chk_invoices_balance CHECK (balance >= 0)`},
	}
	for _, p := range patches {
		sql := fmt.Sprintf(`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
    %s;
  END IF;
END $$`, p.name, p.sql)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.name, err)
		}
	}
	return nil
}
