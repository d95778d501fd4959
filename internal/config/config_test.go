package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Empty(t, cfg.DB.DSN)
	require.Empty(t, cfg.Kafka.Broker)
	require.Equal(t, "escalation_events", cfg.Kafka.EventsTopic)
	require.Equal(t, "escalation_intake", cfg.Kafka.IntakeTopic)
	require.Equal(t, "escalation-service", cfg.Kafka.GroupID)
	require.Equal(t, ":8080", cfg.API.Port)
	require.Equal(t, "/api/v0", cfg.API.BasePath)
	require.Equal(t, 2*time.Minute, cfg.Scanner.Interval)
	require.Equal(t, "logs", cfg.Logging.Dir)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://local/escalations")
	t.Setenv("KAFKA_BROKER", "broker:9092")
	t.Setenv("API_PORT", ":9090")
	t.Setenv("SCAN_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://local/escalations", cfg.DB.DSN)
	require.Equal(t, "broker:9092", cfg.Kafka.Broker)
	require.Equal(t, ":9090", cfg.API.Port)
	require.Equal(t, 30*time.Second, cfg.Scanner.Interval)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "every-so-often")
	_, err := Load()
	require.Error(t, err)
}
