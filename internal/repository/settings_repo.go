package repository

import (
	"database/sql"
	"fmt"

	"fellowship/internal/database"
)

// SettingsRepository stores small key/value settings such as the verse of the day
type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key. Missing keys return "" and no error.
func (r *SettingsRepository) GetSetting(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT setting_value FROM settings WHERE setting_key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(key, value string) error {
	query := r.db.Dialect.UpsertQuery("settings",
		[]string{"setting_key", "setting_value", "updated_at"},
		[]string{"setting_key"},
		[]string{"setting_value", "updated_at"})
	if _, err := r.db.Exec(query, key, value, now()); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting
func (r *SettingsRepository) DeleteSetting(key string) error {
	_, err := r.db.Exec("DELETE FROM settings WHERE setting_key = ?", key)
	return err
}
