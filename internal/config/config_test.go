package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("BUSINESS_TZ", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.SweepEnabled)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoad_BusinessTimeZone(t *testing.T) {
	t.Setenv("BUSINESS_TZ", "Asia/Almaty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Almaty", cfg.Location.String())
}

func TestLoad_RejectsUnknownTimeZone(t *testing.T) {
	t.Setenv("BUSINESS_TZ", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/cleanbook")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateConfig_SweepInterval(t *testing.T) {
	cfg := &Config{DatabaseURL: "x", JWTTTL: time.Hour, SweepEnabled: true}
	assert.Error(t, validateConfig(cfg))

	cfg.SweepEnabled = false
	assert.NoError(t, validateConfig(cfg))
}
