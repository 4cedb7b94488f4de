package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wayzx?sslmode=disable")
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Asia/Kolkata", cfg.Server.DefaultTimezone)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 300*time.Second, cfg.Database.ConnMaxLifetime)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Rewards.ExpirySweepSchedule)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-Timezone")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_TIMEZONE", "Europe/London")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("REWARD_SETTINGS_CACHE_TTL", "60")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DATABASE_AUTO_MIGRATE", "false")
	t.Setenv("DATABASE_MAX_CONNECTIONS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Europe/London", cfg.Server.DefaultTimezone)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.SettingsCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL"},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"missing refresh secret", func(c *Config) { c.JWT.RefreshSecret = "" }, "JWT_REFRESH_SECRET"},
		{"unknown timezone", func(c *Config) { c.Server.DefaultTimezone = "Mars/Olympus" }, "DEFAULT_TIMEZONE"},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:    ServerConfig{DefaultTimezone: "UTC"},
				Database:  DatabaseConfig{URL: "postgres://x"},
				JWT:       JWTConfig{Secret: "a", RefreshSecret: "b"},
				RateLimit: RateLimitConfig{RequestsPerMinute: 10},
			}
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
