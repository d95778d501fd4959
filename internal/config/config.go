package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string // empty runs the in-memory store
	}
	Kafka struct {
		Broker      string // empty disables the broker integration
		EventsTopic string
		IntakeTopic string
		GroupID     string
	}
	API struct {
		Port     string
		BasePath string
	}
	Scanner struct {
		Interval time.Duration
	}
	Team struct {
		File string // JSON roster for in-memory mode
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.EventsTopic = os.Getenv("KAFKA_EVENTS_TOPIC")
	cfg.Kafka.IntakeTopic = os.Getenv("KAFKA_INTAKE_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	if iv := os.Getenv("SCAN_INTERVAL"); iv != "" {
		d, err := time.ParseDuration(iv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCAN_INTERVAL %q: %w", iv, err)
		}
		cfg.Scanner.Interval = d
	}

	cfg.Team.File = os.Getenv("TEAM_FILE")
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Apply defaults
	if cfg.Kafka.EventsTopic == "" {
		cfg.Kafka.EventsTopic = "escalation_events"
	}
	if cfg.Kafka.IntakeTopic == "" {
		cfg.Kafka.IntakeTopic = "escalation_intake"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "escalation-service"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Scanner.Interval == 0 {
		cfg.Scanner.Interval = 2 * time.Minute
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}
