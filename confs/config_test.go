package confs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "test-key")
	t.Setenv("STORE", "memory")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "3536", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.InDelta(t, 0.15, cfg.Pricing.UnitPrice, 1e-9)
	assert.Equal(t, "@every 15m", cfg.Meter.Schedule)
	assert.True(t, cfg.Meter.Enabled)
}

func TestValidateRequiresSigningKey(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")

	err := FromEnv().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "k")
	t.Setenv("STORE", "sqlite")

	assert.Error(t, FromEnv().Validate())
}

func TestValidateRejectsNonPositiveRateLimit(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"RATE_LIMIT_WINDOW", "0s", "RATE_LIMIT_WINDOW"},
		{"RATE_LIMIT_WINDOW", "-1m", "RATE_LIMIT_WINDOW"},
		{"RATE_LIMIT_BURST", "0", "RATE_LIMIT_BURST"},
		{"RATE_LIMIT_RPS", "0", "RATE_LIMIT_RPS"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("JWT_SIGNING_KEY", "k")
			t.Setenv("STORE", "memory")
			t.Setenv(tt.key, tt.value)

			err := FromEnv().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UNIT_PRICE", "0.2")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("METER_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg := FromEnv()
	assert.InDelta(t, 0.2, cfg.Pricing.UnitPrice, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TTL)
	assert.False(t, cfg.Meter.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestDSN(t *testing.T) {
	c := DBConfig{URL: "postgres://u:p@db.example:5432/energy"}
	dsn, err := c.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db.example:5432/energy?sslmode=require", dsn)

	c = DBConfig{Host: "localhost", Port: "5432", User: "u", Password: "p", Name: "energy"}
	dsn, err = c.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=disable")

	_, err = (&DBConfig{}).DSN()
	assert.Error(t, err)
}
