package user_services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/repository/testdb"
	"github.com/iyunix/go-lostfound/internal/repository/user"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(user.NewGormUserRepository(testdb.New(t)), "secret", "Admin@Campus.edu", nopLogger{})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " Student@Campus.edu ", "hunter22", "Sam Student")
	require.NoError(t, err)
	assert.Equal(t, "student@campus.edu", u.Email)
	assert.False(t, u.IsAdmin)
	assert.NotEqual(t, "hunter22", u.Password)

	got, token, err := svc.Login(ctx, "student@campus.edu", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())
}

func TestRegisterRules(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	admin, err := svc.Register(ctx, "admin@campus.edu", "hunter22", "")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Nil(t, admin.FullName)

	_, err = svc.Register(ctx, "ADMIN@campus.edu", "hunter22", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, "new@campus.edu", "short", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	_, err = svc.Register(ctx, "not-an-email", "hunter22", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestLoginFailures(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "student@campus.edu", "hunter22", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "student@campus.edu", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@campus.edu", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateFullName(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "student@campus.edu", "hunter22", "")
	require.NoError(t, err)

	updated, err := svc.UpdateFullName(ctx, u.ID, "  Sam  ")
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Sam", *updated.FullName)

	reloaded, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", *reloaded.FullName)
}
