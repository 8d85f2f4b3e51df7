// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nadlan/internal/models"
)

// allModels is the list of all GORM models to auto-migrate in tests.
var allModels = []interface{}{
	&models.User{},
	&models.Calculator{},
	&models.Property{},
	&models.Investment{},
	&models.Analysis{},
	&models.Setting{},
	&models.AuditLog{},
}

// Partial unique indexes mirror the production migration so that a broken
// exclusivity rule fails loudly in tests.
var exclusivityIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_investments_selected_per_calculator ON investments(calculator_id) WHERE is_selected`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_analyses_default_per_calculator_type ON analyses(calculator_id, type) WHERE is_default`,
}

// DefaultSettings are the rows seeded by the initial migration.
var DefaultSettings = []models.Setting{
	{Key: models.SettingExchangeRate, Value: "3.95", Description: "EUR to ILS exchange rate"},
	{Key: models.SettingVATRate, Value: "19", Description: "VAT rate in percent"},
	{Key: models.SettingMortgageRateIsrael, Value: "4.5", Description: "Annual mortgage rate in Israel (percent)"},
	{Key: models.SettingMortgageRateCyprus, Value: "3.8", Description: "Annual mortgage rate in Cyprus (percent)"},
}

var dbSeq atomic.Int64

// SetupTestDB creates an isolated in-memory SQLite database with all models
// migrated and the default settings seeded. Each call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:nadlan_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	for _, stmt := range exclusivityIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create index: %v", err)
		}
	}
	for _, s := range DefaultSettings {
		setting := s
		if err := db.Create(&setting).Error; err != nil {
			t.Fatalf("failed to seed setting %s: %v", s.Key, err)
		}
	}

	return db
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
