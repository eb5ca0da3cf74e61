package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, EngineElasticsearch, cfg.IndexEngine)
	assert.Equal(t, "product_search", cfg.ElasticsearchIndex)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("INDEX_ENGINE", "redis")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, EngineRedis, cfg.IndexEngine)
	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "99999")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidIndexEngine(t *testing.T) {
	t.Setenv("INDEX_ENGINE", "mongodb")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid index engine")
}
