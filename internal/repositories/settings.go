package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/mstream/internal/models"
)

// VolumeKey is the settings key holding the volume fraction.
const VolumeKey = "musicstream_volume"

// SettingsRepository stores client preferences as key/value rows.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the setting stored under key. ok is false when the key was never written.
func (r *SettingsRepository) Get(key string) (setting models.Setting, ok bool, err error) {
	err = r.db.QueryRow(
		"SELECT key, value, updated_at FROM settings WHERE key = ?", key,
	).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Setting{}, false, nil
	}
	if err != nil {
		return models.Setting{}, false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting, true, nil
}

// Set upserts the setting.
func (r *SettingsRepository) Set(setting models.Setting) error {
	if err := setting.Validate(); err != nil {
		return err
	}
	if setting.UpdatedAt.IsZero() {
		setting.UpdatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, setting.Key, setting.Value, setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", setting.Key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// Volume returns the stored volume fraction.
func (r *SettingsRepository) Volume() (float64, bool, error) {
	setting, ok, err := r.Get(VolumeKey)
	if err != nil || !ok {
		return 0, false, err
	}

	v, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, false, fmt.Errorf("invalid stored volume %q", setting.Value)
	}
	return v, true, nil
}

// SetVolume stores the volume fraction.
func (r *SettingsRepository) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v out of range [0, 1]", v)
	}
	return r.Set(models.Setting{Key: VolumeKey, Value: strconv.FormatFloat(v, 'f', -1, 64)})
}
