package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"britlab/timesheet-portal/internal/models"
)

// SessionRepository persists the single authenticated identity so a
// session survives a portal restart.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Save(user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session user: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO session_state (id, user_data, saved_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
	`, string(data))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted identity, or nil when no session exists.
func (r *SessionRepository) Load() (*models.User, error) {
	var data string
	err := r.db.QueryRow(`SELECT user_data FROM session_state WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session user: %w", err)
	}
	return &user, nil
}

func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM session_state WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
