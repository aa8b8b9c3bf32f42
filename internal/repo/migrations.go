package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-employee-backend/internal/domain"
)

// SchemaStep is one additive, idempotent change to the database schema.
// Apply must check its own precondition so it can run against databases
// created before versions were tracked.
type SchemaStep struct {
	Version int
	Name    string
	Apply   func(tx *gorm.DB) error
}

// schemaSteps lists every schema revision in application order. Steps are
// append-only: never edit or reorder a released step.
var schemaSteps = []SchemaStep{
	{
		Version: 1,
		Name:    "create_employees",
		Apply: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE TABLE IF NOT EXISTS employees (
				id       INTEGER PRIMARY KEY AUTOINCREMENT,
				name     TEXT NOT NULL,
				email    TEXT NOT NULL UNIQUE,
				position TEXT NOT NULL
			)`).Error
		},
	},
	{Version: 2, Name: "add_employees_phone", Apply: addColumnIfAbsent("employees", "phone", "TEXT NOT NULL DEFAULT ''")},
	{Version: 3, Name: "add_employees_address", Apply: addColumnIfAbsent("employees", "address", "TEXT NOT NULL DEFAULT ''")},
	{
		Version: 4,
		Name:    "create_idempotency",
		Apply: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.Idempotency{})
		},
	},
}

// SchemaSteps returns a copy of the ordered schema steps.
func SchemaSteps() []SchemaStep {
	out := make([]SchemaStep, len(schemaSteps))
	copy(out, schemaSteps)
	return out
}

// Migrate applies every schema step in order and records it in
// schema_versions. It is safe to call any number of times.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return applySteps(ctx, db, schemaSteps)
}

func applySteps(ctx context.Context, db *gorm.DB, steps []SchemaStep) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&domain.SchemaVersion{}); err != nil {
		return fmt.Errorf("schema versions: %w", err)
	}
	for _, s := range steps {
		s := s
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := s.Apply(tx); err != nil {
				return err
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.SchemaVersion{
				Version:   s.Version,
				Name:      s.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("schema step %d (%s): %w", s.Version, s.Name, err)
		}
	}
	return nil
}

// AppliedVersions returns the recorded schema versions in ascending order.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	var out []int
	err := db.WithContext(ctx).
		Model(&domain.SchemaVersion{}).
		Order("version asc").
		Pluck("version", &out).Error
	return out, err
}

// addColumnIfAbsent returns a step that adds column to table unless the
// column already exists. ddl is the column type and constraints; NOT NULL
// columns need a DEFAULT so existing rows stay valid.
func addColumnIfAbsent(table, column, ddl string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		ok, err := hasColumn(tx, table, column)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl)).Error
	}
}

// hasColumn reads PRAGMA table_info rather than matching the stored CREATE
// statement text.
func hasColumn(tx *gorm.DB, table, column string) (bool, error) {
	var n int64
	err := tx.Raw("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).
		Row().Scan(&n)
	return n > 0, err
}
