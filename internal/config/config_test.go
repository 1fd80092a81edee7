package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-ingestion/internal/config"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.ServerAddress())
	assert.Equal(t, "http", cfg.Relay.Transport)
	assert.Equal(t, 5*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Geocoding.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Forecast.Timeout)
	assert.Equal(t, 8, cfg.Ingest.Concurrency)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RELAY_URL", "http://downstream:9000/records")
	t.Setenv("INGEST_CONCURRENCY", "3")
	t.Setenv("SCHEDULER_LOCATIONS", "Paris,Berlin,Kyiv")
	t.Setenv("GEOCODING_TIMEOUT", "2s")

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://downstream:9000/records", cfg.Relay.URL)
	assert.Equal(t, 3, cfg.Ingest.Concurrency)
	assert.Equal(t, []string{"Paris", "Berlin", "Kyiv"}, cfg.Scheduler.Locations)
	assert.Equal(t, 2*time.Second, cfg.Geocoding.Timeout)
}

func TestNewConfig_InvalidValue(t *testing.T) {
	t.Setenv("INGEST_CONCURRENCY", "many")

	_, err := config.NewConfig()
	assert.Error(t, err)
}

func TestRabbitMQ_Address(t *testing.T) {
	r := config.RabbitMQ{Host: "mq", Port: "5672", User: "u", Pass: "p"}
	assert.Equal(t, "amqp://u:p@mq:5672/", r.Address())
}
