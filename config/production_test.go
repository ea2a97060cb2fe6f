package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProductionConfigDefaults(t *testing.T) {
	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "tariffs:ingest", cfg.Queue.Name)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.Scheduler.IngestInterval)
	assert.Contains(t, cfg.WBFeed.BoxTariffsURL, "tariffs/box")
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadProductionConfigEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "8088")
	t.Setenv("QUEUE_CONCURRENCY", "4")
	t.Setenv("WB_REQUEST_TIMEOUT", "10s")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Queue.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.WBFeed.Timeout)
}

func TestValidateProductionConfig(t *testing.T) {
	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	cfg.WBFeed.BoxTariffsURL = "not-a-url"
	err = ValidateProductionConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WB_BOX_TARIFFS_URL")

	cfg, err = LoadProductionConfig()
	require.NoError(t, err)
	cfg.Queue.Concurrency = 0
	err = ValidateProductionConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUEUE_CONCURRENCY")
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "secret", Name: "tariffs", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=tariffs sslmode=disable", cfg.GetDSN())
}
