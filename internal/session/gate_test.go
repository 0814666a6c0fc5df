package session

import (
	"path/filepath"
	"testing"

	"britlab/timesheet-portal/internal/config"
	"britlab/timesheet-portal/internal/database"
	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestGate(t *testing.T) *Gate {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepository(db.DB)
	require.NoError(t, users.Seed(config.DefaultRoster()))

	return NewGate(users, repository.NewSessionRepository(db.DB), zaptest.NewLogger(t))
}

func TestLoginSuccess(t *testing.T) {
	g := newTestGate(t)

	user, err := g.Login("Daiana", "daiana123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.Equal(t, "Daiana", user.Name)
}

func TestLoginUsernameCaseInsensitive(t *testing.T) {
	g := newTestGate(t)

	// Username matching ignores case; the password is still checked
	// against the lowercase form.
	user, err := g.Login("DAIANA", "daiana123")
	require.NoError(t, err)
	assert.Equal(t, "daiana", user.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	g := newTestGate(t)

	_, err := g.Login("Daiana", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The password rule is case-sensitive against the lowercase form.
	_, err = g.Login("Daiana", "Daiana123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// A failed login leaves no session behind.
	current, err := g.Current()
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLoginUnknownUser(t *testing.T) {
	g := newTestGate(t)

	_, err := g.Login("intruso", "intruso123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginAdminRole(t *testing.T) {
	g := newTestGate(t)

	user, err := g.Login("miguel", "miguel123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestSessionPersistsAndClears(t *testing.T) {
	g := newTestGate(t)

	_, err := g.Login("Daiana", "daiana123")
	require.NoError(t, err)

	current, err := g.Current()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Daiana", current.Name)

	require.NoError(t, g.Logout())

	current, err = g.Current()
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLoginReplacesExistingSession(t *testing.T) {
	g := newTestGate(t)

	_, err := g.Login("Daiana", "daiana123")
	require.NoError(t, err)
	_, err = g.Login("miguel", "miguel123")
	require.NoError(t, err)

	current, err := g.Current()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, models.RoleAdmin, current.Role)
}
