package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valai/valai-api/internal/models"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30000, cfg.TierLimit(models.TierFree))
	assert.Equal(t, 300000, cfg.TierLimit(models.TierStandard))
	assert.Equal(t, 1000000, cfg.TierLimit(models.TierPro))
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "sekret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "sekret", cfg.Auth.JWTSecret)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": "3000"},
		"quota": {"tier_limits": {"free": 1000, "standard": 5000, "pro": 9000}}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 1000, cfg.TierLimit(models.TierFree))
	assert.Equal(t, 9000, cfg.TierLimit(models.TierPro))
}

// A zero tier limit is a startup error, not a runtime divide-by-zero
func TestValidateRejectsNonPositiveTierLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"quota": {"tier_limits": {"free": 0, "standard": 300000, "pro": 1000000}}
	}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "non-positive token limit")
}

func TestValidateRejectsUnknownTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"quota": {"tier_limits": {"platinum": 50}}
	}`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown subscription tier")
}

func TestValidateRequiresJWTSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestTierLimitUnknownTierFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.TierLimit("vip"))
}
