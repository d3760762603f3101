package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.25", cfg.MaxImpact)
	assert.Equal(t, "1.1", cfg.ImpactMultiplier)
	assert.Equal(t, "0.02", cfg.DefaultSlippage)
	assert.Equal(t, 20, cfg.SqrtMaxIters)
	assert.Equal(t, ":7878", cfg.ListenAddr)
	assert.Equal(t, "127.0.0.1:9090", cfg.HealthAddr)
	assert.Equal(t, 8, cfg.WorkerPool)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FENRIR_MAX_IMPACT", "0.4")
	t.Setenv("FENRIR_WORKER_POOL", "16")
	t.Setenv("FENRIR_LOGGING_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.4", cfg.MaxImpact)
	assert.Equal(t, 16, cfg.WorkerPool)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, err := os.Stat("/nonexistent/fenrir.yaml")
	require.Error(t, err)

	_, err = config.Load("/nonexistent/fenrir.yaml")
	assert.NoError(t, err)
}
