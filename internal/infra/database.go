package infra

import (
	"fmt"

	"beewear/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (sequences, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations auto-migrates the full model set and applies the schema
// patches. Also used directly by the integration test harness against a
// throwaway container database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Collection{},
		&model.Product{},
		&model.ProductVariation{},
		&model.VariationSize{},
		&model.StockItem{},
		&model.StockMovement{},
		&model.Order{},
		&model.OrderItem{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Public order numbers are drawn from a dedicated sequence inside the
		// creation transaction, independent of the uuid primary key.
		`CREATE SEQUENCE IF NOT EXISTS orders_number_seq START 1000`,

		// Partial index for the payment reconcile cron: pending orders that
		// already have a checkout session.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_orders_pending_session') THEN
		    CREATE INDEX idx_orders_pending_session
		        ON orders (created_at)
		        WHERE status = 'PENDING' AND checkout_session_id IS NOT NULL;
		  END IF;
		END $$`,

		// Movement history is always read newest-first per stock item.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_movements_item_created') THEN
		    CREATE INDEX idx_stock_movements_item_created
		        ON stock_movements (stock_item_id, created_at DESC);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
