package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the on-device SQLite store. The path comes from DB_PATH
// (default smartretail.db in the working directory).
func ConnectDB() *gorm.DB {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "smartretail.db"
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		log.Fatal("Failed to open database. \n", err)
	}

	// WAL lets the periodic jobs read while an interactive write commits;
	// busy_timeout keeps concurrent writers waiting instead of erroring.
	db.Exec("PRAGMA journal_mode = WAL")
	db.Exec("PRAGMA busy_timeout = 5000")
	db.Exec("PRAGMA foreign_keys = ON")

	// The store is single-writer; a small pool is plenty for one device.
	sqlDB, _ := db.DB()
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Printf("[database] opened %s", path)
	return db
}
