package database

import (
	"fmt"
	"sync/atomic"
	"testing"

	"kakeibo/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seeddb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSeedSystemCategories(t *testing.T) {
	expected := 0
	for _, sc := range systemCategories {
		expected += 1 + len(sc.Children)
	}

	t.Run("creates the shared tree", func(t *testing.T) {
		db := openTestDB(t)
		if err := SeedSystemCategories(db); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		var count int64
		db.Model(&models.Category{}).Where("is_system = ? AND user_id IS NULL", true).Count(&count)
		if count != int64(expected) {
			t.Errorf("expected %d system categories, got %d", expected, count)
		}

		var groceries models.Category
		if err := db.Where("name = ?", "Groceries").First(&groceries).Error; err != nil {
			t.Fatalf("expected Groceries to exist: %v", err)
		}
		if groceries.ParentID == nil {
			t.Fatal("expected Groceries to have a parent")
		}
		var parent models.Category
		db.First(&parent, "id = ?", *groceries.ParentID)
		if parent.Name != "Food" {
			t.Errorf("expected parent Food, got %s", parent.Name)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := openTestDB(t)
		for i := 0; i < 2; i++ {
			if err := SeedSystemCategories(db); err != nil {
				t.Fatalf("seed run %d failed: %v", i, err)
			}
		}
		var count int64
		db.Model(&models.Category{}).Count(&count)
		if count != int64(expected) {
			t.Errorf("expected %d categories after reseeding, got %d", expected, count)
		}
	})
}
