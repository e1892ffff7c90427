package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valai/valai-api/internal/models"
	"github.com/valai/valai-api/internal/repository"
	"github.com/valai/valai-api/internal/storage"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate())

	return NewAuthService(repository.NewUserRepository(db), "test-secret", 24)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "jett@example.com", "jettmain", "hunter2hunter2"))

	token, err := svc.Login(ctx, "jett@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "jett@example.com", claims["email"])
	assert.NotEmpty(t, claims["sub"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "dup@example.com", "first", "hunter2hunter2"))
	err := svc.Register(ctx, "dup@example.com", "second", "hunter2hunter2")
	assert.ErrorContains(t, err, "already exists")
}

func TestRegisterDefaultsToFreeTier(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate())

	repo := repository.NewUserRepository(db)
	svc := NewAuthService(repo, "test-secret", 24)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "new@example.com", "newbie", "hunter2hunter2"))

	user, err := repo.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, models.TierFree, user.Tier)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "sage@example.com", "sagemain", "hunter2hunter2"))

	_, err := svc.Login(ctx, "sage@example.com", "wrong-password")
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "kj@example.com", "kjmain", "hunter2hunter2"))
	token, err := svc.Login(ctx, "kj@example.com", "hunter2hunter2")
	require.NoError(t, err)

	other := NewAuthService(nil, "different-secret", 24)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
