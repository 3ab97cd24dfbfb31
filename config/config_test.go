package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_LOG_LEVEL", "")
	t.Setenv("DATASET_PROVIDER", "")
	t.Setenv("DATASET_LOCATION", "")
	t.Setenv("GAME_MAX_SESSIONS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ProviderDir, cfg.Dataset.Provider)
	assert.Equal(t, "data", cfg.Dataset.Location)
	assert.Equal(t, 10000, cfg.Game.MaxSessions)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "PRODUCTION")
	t.Setenv("APP_LOG_LEVEL", "")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("DATASET_PROVIDER", "MinIO")
	t.Setenv("DATASET_BUCKET", "semantle")
	t.Setenv("DATASET_ENDPOINT", "localhost:9000")
	t.Setenv("DATASET_USE_SSL", "false")
	t.Setenv("DATASET_COMPRESSION", "zstd")
	t.Setenv("GAME_MAX_SESSIONS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "9090", cfg.App.ServerPort)
	assert.Equal(t, ProviderMinio, cfg.Dataset.Provider)
	assert.False(t, cfg.Dataset.UseSSL)
	assert.Equal(t, CompressionZstd, cfg.Dataset.Compression)
	assert.Equal(t, 10000, cfg.Game.MaxSessions)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:     AppConfig{HttpTimeoutSeconds: 30},
			Dataset: DatasetConfig{Provider: ProviderDir, Location: "data"},
			Game:    GameConfig{MaxSessions: 10},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Dataset.Provider = "ftp" }},
		{"http without location", func(c *Config) { c.Dataset.Provider = ProviderHTTP; c.Dataset.Location = "" }},
		{"s3 without bucket", func(c *Config) { c.Dataset.Provider = ProviderS3 }},
		{"minio without endpoint", func(c *Config) { c.Dataset.Provider = ProviderMinio; c.Dataset.Bucket = "b" }},
		{"unknown compression", func(c *Config) { c.Dataset.Compression = "gzip" }},
		{"no sessions", func(c *Config) { c.Game.MaxSessions = 0 }},
		{"no timeout", func(c *Config) { c.App.HttpTimeoutSeconds = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
