package repository

import (
	"database/sql"
	"fmt"

	"britlab/timesheet-portal/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Seed writes the configured roster, replacing any previous rows for the
// same ids. The roster is fixed configuration, not user-managed data.
func (r *UserRepository) Seed(users []models.User) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO users (id, username, name, role)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, user := range users {
		if _, err := stmt.Exec(user.ID, user.Username, user.Name, string(user.Role)); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", user.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByUsername looks a user up by login name, case-insensitively.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	query := `
		SELECT id, username, name, role
		FROM users
		WHERE LOWER(username) = LOWER(?)
	`

	var user models.User
	var role string
	err := r.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.Name, &role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = models.Role(role)

	return &user, nil
}
