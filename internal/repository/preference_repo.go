package repository

import (
	"database/sql"
	"time"
)

// PreferenceRepository is a small key-value store for user preferences
type PreferenceRepository struct {
	db *DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored value for key. ok is false when nothing is stored.
func (r *PreferenceRepository) Get(key string) (value string, ok bool, err error) {
	err = r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (r *PreferenceRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

// Delete removes key
func (r *PreferenceRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	return err
}
