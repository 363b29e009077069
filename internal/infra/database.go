package infra

import (
	"fmt"

	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (partial indexes, triggers, etc.).
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

// RunMigrations creates or updates the schema. Also used by integration tests
// against a throwaway container database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Currency{},
		&model.CashSession{},
		&model.SessionOpeningBalance{},
		&model.CashBalance{},
		&model.CashboxAddition{},
		&model.SessionRateSnapshot{},
		&model.CasherCashSession{},
		&model.CasherSessionBalance{},
		&model.Transaction{},
		&model.CashMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one non-closed shop session at any time. The application
		// checks under a row lock; this index is the database-level backstop.
		{"unique open cash session", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_sessions_single_open') THEN
    CREATE UNIQUE INDEX idx_cash_sessions_single_open
        ON cash_sessions ((true))
        WHERE status <> 'closed';
  END IF;
END $$`},
		// At most one non-closed drawer per cashier per session.
		{"unique open casher session", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_casher_sessions_single_open') THEN
    CREATE UNIQUE INDEX idx_casher_sessions_single_open
        ON casher_cash_sessions (cash_session_id, casher_id)
        WHERE status <> 'closed';
  END IF;
END $$`},
		// Ledger entries are immutable: reject UPDATE and DELETE at the
		// database level, regardless of what application code does.
		{"cash movements append-only trigger", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_proc WHERE proname = 'reject_cash_movement_change') THEN
    CREATE FUNCTION reject_cash_movement_change() RETURNS trigger AS
    'BEGIN RAISE EXCEPTION ''cash_movements is append-only''; RETURN NULL; END'
    LANGUAGE plpgsql;
  END IF;
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_cash_movements_append_only') THEN
    CREATE TRIGGER trg_cash_movements_append_only
        BEFORE UPDATE OR DELETE ON cash_movements
        FOR EACH ROW EXECUTE FUNCTION reject_cash_movement_change();
  END IF;
END $$`},
		// Partial index for the sums that drive every balance read.
		{"movement sum index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_movements_sums') THEN
    CREATE INDEX idx_cash_movements_sums
        ON cash_movements (cash_session_id, casher_id, currency_id, type);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
