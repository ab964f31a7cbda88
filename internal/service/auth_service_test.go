package service

import (
	"context"
	"testing"

	"quiz_backend/internal/model"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), RegisterInput{Name: " J  ", Email: "not-an-email", Password: "weak"})
	require.Error(t, err)
	fields := fieldMessages(t, err)
	assert.Equal(t, "name must be at least 2 characters", fields["name"])
	assert.Equal(t, "Please provide a valid email", fields["email"])
	assert.Equal(t, "password must be at least 6 characters", fields["password"])
	assert.Len(t, fields, 3)

	_, err = f.auth.Register(context.Background(), RegisterInput{Name: "John", Email: "john@example.com", Password: "password1"})
	fields = fieldMessages(t, err)
	assert.Contains(t, fields["password"], "one uppercase letter", "missing uppercase letter")
	assert.Len(t, fields, 1)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), LoginInput{Email: "  "})
	fields := fieldMessages(t, err)
	assert.Equal(t, "email is required", fields["email"])
	assert.Equal(t, "password is required", fields["password"])
}

func TestRegisterAndDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{Name: "John Doe", Email: "John@Example.com", Password: "Password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "john@example.com", res.User.Email)
	assert.Equal(t, model.RoleUser, res.User.Role)

	claims, err := util.ParseJWT(res.Token, f.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.NotEmpty(t, claims.ID)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Johnny", Email: "john@example.com", Password: "Password123"})
	assert.Equal(t, util.KindConflict, util.KindOf(err))
}

func TestLoginCachesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: "Jane Smith", Email: "jane@example.com", Password: "Password123"})
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, LoginInput{Email: "JANE@example.com", Password: "Password123"})
	require.NoError(t, err)
	assert.NotNil(t, res.User.LastLogin)

	var summary SessionSummary
	require.NoError(t, cache.GetJSON(ctx, f.store, sessionKey(res.User.ID), &summary))
	assert.Equal(t, "jane@example.com", summary.Email)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.auth.Register(ctx, RegisterInput{Name: "Jane Smith", Email: "jane@example.com", Password: "Password123"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Password123"})
	assert.Equal(t, util.KindUnauthorized, util.KindOf(err))

	_, err = f.auth.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Wrong1234"})
	assert.Equal(t, util.KindUnauthorized, util.KindOf(err))

	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", reg.User.ID).Update("is_active", false).Error)
	_, err = f.auth.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Password123"})
	assert.ErrorIs(t, err, util.ErrAccountDeactivated)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: "Jane Smith", Email: "jane@example.com", Password: "Password123"})
	require.NoError(t, err)
	res, err := f.auth.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Password123"})
	require.NoError(t, err)

	claims, err := util.ParseJWT(res.Token, f.cfg.JWT.Secret)
	require.NoError(t, err)

	revoked, err := f.auth.Blacklist.IsRevoked(ctx, claims.TokenID(res.Token))
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.auth.Logout(ctx, claims, res.Token))

	revoked, err = f.auth.Blacklist.IsRevoked(ctx, claims.TokenID(res.Token))
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.store.Get(ctx, sessionKey(claims.UserID))
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Register(context.Background(), RegisterInput{Name: "John Doe", Email: "john@example.com", Password: "Password123"})
	require.NoError(t, err)

	profile, err := f.auth.Me(res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", profile.Name)
	assert.Equal(t, "Beginner", profile.Level)

	_, err = f.auth.Me(9999)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}
