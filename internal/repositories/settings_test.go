package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSettingsRepository(t *testing.T) {
	t.Run("Get missing key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		_, ok, err := repo.Get("nope")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("expected missing key to report ok=false")
		}
	})

	t.Run("Set then Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		if err := repo.Set(models.Setting{Key: "theme", Value: "dark"}); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		setting, ok, err := repo.Get("theme")
		if err != nil || !ok {
			t.Fatalf("expected stored setting, got ok=%v err=%v", ok, err)
		}
		if setting.Value != "dark" {
			t.Errorf("expected dark, got %s", setting.Value)
		}
		if setting.UpdatedAt.IsZero() {
			t.Error("expected updated_at to be set")
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		_ = repo.Set(models.Setting{Key: "theme", Value: "dark"})
		if err := repo.Set(models.Setting{Key: "theme", Value: "light"}); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		setting, _, _ := repo.Get("theme")
		if setting.Value != "light" {
			t.Errorf("expected light, got %s", setting.Value)
		}
	})

	t.Run("Set rejects empty key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewSettingsRepository(db).Set(models.Setting{Value: "x"}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		_ = repo.Set(models.Setting{Key: "k", Value: "v"})
		if err := repo.Delete("k"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, ok, _ := repo.Get("k"); ok {
			t.Error("expected key to be gone")
		}
		if err := repo.Delete("k"); err != nil {
			t.Errorf("deleting twice should not fail, got %v", err)
		}
	})

	t.Run("Volume", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		if _, ok, err := repo.Volume(); ok || err != nil {
			t.Fatalf("expected no stored volume, got ok=%v err=%v", ok, err)
		}

		if err := repo.SetVolume(0.35); err != nil {
			t.Fatalf("failed to set volume: %v", err)
		}

		v, ok, err := repo.Volume()
		if err != nil || !ok {
			t.Fatalf("expected stored volume, got ok=%v err=%v", ok, err)
		}
		if v != 0.35 {
			t.Errorf("expected 0.35, got %v", v)
		}

		setting, _, _ := repo.Get(VolumeKey)
		if setting.Value != "0.35" {
			t.Errorf("expected raw value 0.35, got %s", setting.Value)
		}
	})

	t.Run("SetVolume rejects out of range", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		if err := repo.SetVolume(1.5); err == nil {
			t.Error("expected error for volume above 1")
		}
		if err := repo.SetVolume(-0.1); err == nil {
			t.Error("expected error for negative volume")
		}
	})

	t.Run("Volume rejects corrupt value", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		_ = repo.Set(models.Setting{Key: VolumeKey, Value: "loud"})
		if _, ok, err := repo.Volume(); ok || err == nil {
			t.Errorf("expected parse error, got ok=%v err=%v", ok, err)
		}
	})
}
