package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/gatehouse.db", cfg.Database.Path)
	assert.False(t, cfg.Redis.Enabled)

	assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 2*time.Hour, cfg.Auth.LockDuration)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)

	assert.Equal(t, "filesystem", cfg.Uploads.Backend)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxSize)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GATEHOUSE_SERVER_PORT", "8080")
	t.Setenv("GATEHOUSE_AUTH_MAX_FAILED_ATTEMPTS", "3")
	t.Setenv("GATEHOUSE_AUTH_LOCK_DURATION", "30m")

	cfg := defaultConfig(t)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockDuration)
}

func TestServerAddr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 3000}
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "gatehouse",
		Password: "secret",
		Database: "gatehouse",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=gatehouse password=secret dbname=gatehouse sslmode=require",
		cfg.DSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "database.driver",
		},
		{
			name: "postgres requires host",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Host = ""
			},
			wantErr: "database.host",
		},
		{
			name: "sqlite requires path",
			mutate: func(c *Config) {
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name:    "zero lockout threshold",
			mutate:  func(c *Config) { c.Auth.MaxFailedAttempts = 0 },
			wantErr: "auth.max_failed_attempts",
		},
		{
			name:    "negative lock duration",
			mutate:  func(c *Config) { c.Auth.LockDuration = -time.Hour },
			wantErr: "auth.lock_duration",
		},
		{
			name:    "bcrypt cost out of range",
			mutate:  func(c *Config) { c.Auth.BcryptCost = bcrypt.MaxCost + 1 },
			wantErr: "auth.bcrypt_cost",
		},
		{
			name:    "zero session ttl",
			mutate:  func(c *Config) { c.Auth.SessionTTL = 0 },
			wantErr: "auth.session_ttl",
		},
		{
			name:    "unknown uploads backend",
			mutate:  func(c *Config) { c.Uploads.Backend = "ftp" },
			wantErr: "uploads.backend",
		},
		{
			name: "s3 backend requires bucket",
			mutate: func(c *Config) {
				c.Uploads.Backend = "s3"
				c.Uploads.S3.Bucket = ""
			},
			wantErr: "uploads.s3.bucket",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
