package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: "9000"
mongo:
  uri: mongodb://db:27017
  dbName: tilapia_test
jwt:
  secret: from-file
  expiration: 1h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "tilapia_test", cfg.Mongo.DBName)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "tilapia_hub", cfg.Mongo.DBName)
	assert.Equal(t, 72*time.Hour, cfg.JWT.TTL())
}

func TestLoadConfig_Transactions(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Mongo.UseTransactions, "best-effort mode is the default")

	t.Setenv("MONGO_USE_TRANSACTIONS", "true")
	cfg, err = LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Mongo.UseTransactions)
}
