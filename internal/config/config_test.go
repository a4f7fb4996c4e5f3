package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("PAGINATION_DEFAULT_LIMIT", "")
	t.Setenv("PAGINATION_MAX_LIMIT", "")
	t.Setenv("S3_UPLOAD_TTL_SECONDS", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.Equal(t, time.Hour, cfg.Storage.UploadTTL())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("PAGINATION_DEFAULT_LIMIT", "500")
	t.Setenv("PAGINATION_MAX_LIMIT", "20")
	t.Setenv("S3_UPLOAD_TTL_SECONDS", "600")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 3*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 20, cfg.Pagination.DefaultLimit, "default is clamped to the max")
	assert.Equal(t, 10*time.Minute, cfg.Storage.UploadTTL())
}

func TestUploadTTLIsCapped(t *testing.T) {
	assert.Equal(t, time.Hour, StorageConfig{UploadTTLSeconds: 7200}.UploadTTL())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadTelemetry(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.ExporterEndpoint)
	assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)

	t.Setenv("OTEL_SAMPLING_RATIO", "2")
	_, err = Load()
	assert.Error(t, err)
}
