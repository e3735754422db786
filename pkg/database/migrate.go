package database

import (
	"fmt"
	"log"

	"smartretail-pos/internal/model"

	"gorm.io/gorm"
)

// SchemaVersion is the version this build of the application expects.
// It is stored in SQLite's user_version pragma.
const SchemaVersion = 3

// migrations maps a starting version to the step that brings the schema to
// the next version. A step must be additive: existing rows survive it.
var migrations = map[int]func(*gorm.DB) error{
	// v2 -> v3: users gained a created_at column. SQLite only accepts a
	// constant default on ADD COLUMN, so the column lands with a sentinel
	// and a separate backfill stamps existing rows with "now".
	2: func(db *gorm.DB) error {
		if err := db.Exec(
			"ALTER TABLE users ADD COLUMN created_at DATETIME NOT NULL DEFAULT '1970-01-01 00:00:00'",
		).Error; err != nil {
			return err
		}
		return db.Exec(
			"UPDATE users SET created_at = strftime('%Y-%m-%d %H:%M:%S', 'now') WHERE created_at = '1970-01-01 00:00:00'",
		).Error
	},
}

func allModels() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.Transaction{},
		&model.TransactionItem{},
	}
}

// Migrate brings the store up to SchemaVersion.
//
// A fresh database (user_version 0) is created outright. A database at an
// older version is walked forward through the registered steps. If a version
// has no registered step there is no migration path: the store is dropped and
// recreated, losing local data. That destructive fallback is an explicit
// policy for abandoned development versions, not an accident, and it logs
// loudly before acting.
func Migrate(db *gorm.DB) error {
	version, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version == 0 {
		if err := db.AutoMigrate(allModels()...); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return setVersion(db, SchemaVersion)
	}

	// A store from a newer build is as pathless as one from an abandoned
	// version, so the same destructive policy applies.
	if version > SchemaVersion {
		log.Printf("[database] store is at v%d, newer than this build's v%d, dropping and recreating the store (local data is lost)", version, SchemaVersion)
		return recreate(db)
	}

	for version < SchemaVersion {
		step, ok := migrations[version]
		if !ok {
			log.Printf("[database] no migration path from v%d, dropping and recreating the store (local data is lost)", version)
			return recreate(db)
		}
		if err := step(db); err != nil {
			return fmt.Errorf("migrate v%d -> v%d: %w", version, version+1, err)
		}
		version++
		if err := setVersion(db, version); err != nil {
			return err
		}
		log.Printf("[database] migrated schema to v%d", version)
	}

	// AutoMigrate is idempotent and fills in anything a hand-written step
	// may have skipped (indexes, new tables).
	return db.AutoMigrate(allModels()...)
}

func recreate(db *gorm.DB) error {
	for _, m := range allModels() {
		if err := db.Migrator().DropTable(m); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("recreate schema: %w", err)
	}
	return setVersion(db, SchemaVersion)
}

func currentVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

func setVersion(db *gorm.DB, version int) error {
	return db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error
}
