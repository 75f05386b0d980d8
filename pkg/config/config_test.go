package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajg707/laurx-portal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "stripe_", cfg.Firestore.CollectionPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Groups.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Groups.FetchTimeout)
	assert.Equal(t, "@every 1h", cfg.Groups.RefreshSchedule)
	assert.Empty(t, cfg.Redis.URL, "redis cache is opt-in")
	assert.Equal(t, config.JWTConfig{Issuer: "laurx-portal"}, cfg.JWT, "tokens are only verified, so no expiry setting")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GROUP_CACHE_TTL_SECONDS", "60")
	t.Setenv("FIRESTORE_PROJECT_ID", "laurx-test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ISSUER", "laurx-admin")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, time.Minute, cfg.Groups.CacheTTL)
	assert.Equal(t, "laurx-test", cfg.Firestore.ProjectID)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, config.JWTConfig{Secret: "s3cret", Issuer: "laurx-admin"}, cfg.JWT)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("HTTP_PORT", "not-a-port")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("FIRESTORE_PROJECT_ID", "laurx-prod")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapesPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "portal", SSLMode: "require"}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/portal?sslmode=require", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.ConnectionString())
}
