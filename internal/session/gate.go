// Package session gates portal access behind the fixed roster. This is
// deliberately not a security boundary: the password rule is derived
// from the username and the restored session is trusted as-is.
package session

import (
	"errors"
	"fmt"
	"strings"

	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/repository"

	"go.uber.org/zap"
)

// ErrInvalidCredentials is surfaced to the user verbatim; a rejected
// login changes no state.
var ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")

const passwordSuffix = "123"

type Gate struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	logger   *zap.Logger
}

func NewGate(users *repository.UserRepository, sessions *repository.SessionRepository, logger *zap.Logger) *Gate {
	return &Gate{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// Login matches the username case-insensitively against the roster and
// checks the password against the derived rule (lowercase username plus
// a fixed suffix, compared exactly). Success persists the identity.
func (g *Gate) Login(username, password string) (*models.User, error) {
	user, err := g.users.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		g.logger.Warn("Login rejected: unknown user", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	expected := strings.ToLower(user.Username) + passwordSuffix
	if password != expected {
		g.logger.Warn("Login rejected: wrong password", zap.String("username", user.Username))
		return nil, ErrInvalidCredentials
	}

	if err := g.sessions.Save(user); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	g.logger.Info("User logged in",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Current restores the persisted identity, nil when anonymous. The
// stored identity is not re-validated.
func (g *Gate) Current() (*models.User, error) {
	return g.sessions.Load()
}

// Logout clears all session state.
func (g *Gate) Logout() error {
	if err := g.sessions.Clear(); err != nil {
		return err
	}
	g.logger.Info("User logged out")
	return nil
}
