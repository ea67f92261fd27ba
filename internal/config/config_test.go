package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/portal")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/portal")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 24.0, cfg.Auth.JWTExpiry.Hours())
	assert.Equal(t, DataSourceLive, cfg.DataSource)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.CORS.AllowAllOrigins)
}

func TestLoad_DataSourceValidation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/portal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORTAL_DATA_SOURCE", "hybrid")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("PORTAL_DATA_SOURCE", "mock")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DataSourceMock, cfg.DataSource)

	t.Setenv("ENVIRONMENT", "production")
	_, err = Load()
	require.Error(t, err, "mock data source must be rejected in production")
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/portal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.carebridge.health, https://staging.carebridge.health")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://portal.carebridge.health", "https://staging.carebridge.health"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.CORS.AllowAllOrigins)
}
