package repository

import (
	"log"
	"os"
	"testing"

	"campfire/internal/config"
	"campfire/internal/database"

	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	// Set environment to test
	os.Setenv("APP_ENV", "test")

	// A live Postgres is optional: the unit tests here run against sqlmock
	// or in-memory sqlite. When the test database is reachable we connect
	// so leftover rows from integration runs get cleaned up afterwards.
	if cfg, err := config.LoadConfig(); err != nil {
		log.Printf("Test config not loaded, running without a database: %v", err)
	} else if testDB, err = database.Connect(cfg); err != nil {
		log.Printf("Test database unavailable, running without it: %v", err)
		testDB = nil
	}

	code := m.Run()

	if testDB != nil {
		truncateTables(testDB)
	}

	os.Exit(code)
}

func truncateTables(db *gorm.DB) {
	// Simple cleanup between runs if desired,
	// though usually we use transactions or fresh IDs in tests.
	db.Exec("TRUNCATE TABLE chat_messages, campaign_members, campaigns, comments, likes, attachments, posts, follows, users CASCADE")
}
