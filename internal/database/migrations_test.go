package database

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/uptwnp/deal-network-sub001/internal/prefs"
)

func TestApplyMigrationsStripsLegacyKeyPrefix(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&prefs.Entry{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	legacy := prefs.Entry{
		Key:              "pref_active_scope",
		Value:            "all",
		UpdatedAtSeconds: 1700000000,
	}
	if err := database.Create(&legacy).Error; err != nil {
		testContext.Fatalf("failed to insert legacy entry: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored prefs.Entry
	if err := database.Where("key = ?", "active_scope").Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload entry under stripped key: %v", err)
	}
	if stored.Value != "all" {
		testContext.Fatalf("expected value preserved, got %q", stored.Value)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationStripLegacyKeyPrefix).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestOpenSQLiteInitializesSchema(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "prefs.db")

	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}
	if !database.Migrator().HasTable("ui_preferences") {
		testContext.Fatalf("expected ui_preferences table")
	}

	if _, err := OpenSQLite("", nil); err == nil {
		testContext.Fatalf("expected error for empty path")
	}
}
