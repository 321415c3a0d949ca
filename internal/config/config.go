package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	DataFile        string        `env:"DATA_FILE" envDefault:"data/bird_surveys.csv"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	LogoURL         string        `env:"LOGO_URL"`
	ShutdownTimeout time.Duration `env:"-"`

	// Interaction-event publishing.
	BatchSize          int           `env:"-"`
	BatchFlushInterval time.Duration `env:"-"`
	EventQueueSize     int           `env:"EVENT_QUEUE_SIZE" envDefault:"1024"`
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers       []string      `env:"-"`
	KafkaTopic         string        `env:"KAFKA_TOPIC" envDefault:"colony-interactions"`

	// Browser sessions.
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	MaxSessions          int           `env:"MAX_SESSIONS" envDefault:"10000"`

	// Mapbox reverse geocoding of colony markers.
	MapboxToken     string        `env:"MAPBOX_TOKEN"`
	MapboxEnabled   bool          `env:"-"`
	MapboxTimeout   time.Duration `env:"-"`
	MapboxCacheSize int           `env:"-"`

	// OpenTelemetry tracing, opt-in.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = shutdownTimeout

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	cfg.BatchSize = batchSize

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	cfg.BatchFlushInterval = flushInterval

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}
	cfg.MapboxTimeout = mapboxTimeout
	mapboxCacheSize, err := parseMapboxCacheSize()
	if err != nil {
		return nil, err
	}
	cfg.MapboxCacheSize = mapboxCacheSize

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}

	cfg.KafkaBrokers = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataFile == "" {
		return errors.New("DATA_FILE is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.SessionSweepInterval <= 0 {
		return errors.New("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.MaxSessions <= 0 {
		return errors.New("MAX_SESSIONS must be positive")
	}
	if c.EventQueueSize <= 0 {
		return errors.New("EVENT_QUEUE_SIZE must be positive")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parseMapboxCacheSize() (int, error) {
	s := os.Getenv("MAPBOX_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid MAPBOX_CACHE_SIZE %q: must be a positive integer", s)
	}
	return n, nil
}
