package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Corridor resolution settings.
	CorridorBufferM float64
	ProviderTimeout time.Duration

	// Upstream provider endpoints and cache lifetimes.
	VegagerdinBaseURL string
	VegagerdinTTL     time.Duration
	VedurBaseURL      string
	VedurTTL          time.Duration
	AlertsTTL         time.Duration
	ForecastBaseURL   string
	ForecastTTL       time.Duration

	// Optional snapshot publishing to Kafka.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	vegagerdinTTL, err := parseDuration("VEGAGERDIN_TTL", "15m")
	if err != nil {
		return nil, err
	}
	vedurTTL, err := parseDuration("VEDUR_TTL", "15m")
	if err != nil {
		return nil, err
	}
	alertsTTL, err := parseDuration("ALERTS_TTL", "30m")
	if err != nil {
		return nil, err
	}
	forecastTTL, err := parseDuration("FORECAST_TTL", "1h")
	if err != nil {
		return nil, err
	}

	bufferM, err := parseFloat("CORRIDOR_BUFFER_M", 5000)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CorridorBufferM: bufferM,
		ProviderTimeout: providerTimeout,

		VegagerdinBaseURL: envOrDefault("VEGAGERDIN_BASE_URL", "https://gagnaveita.vegagerdin.is"),
		VegagerdinTTL:     vegagerdinTTL,
		VedurBaseURL:      envOrDefault("VEDUR_BASE_URL", "https://api.vedur.is"),
		VedurTTL:          vedurTTL,
		AlertsTTL:         alertsTTL,
		ForecastBaseURL:   envOrDefault("FORECAST_BASE_URL", "https://api.met.no"),
		ForecastTTL:       forecastTTL,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "corridor-snapshots"),
	}

	if cfg.CorridorBufferM <= 0 {
		return nil, errors.New("CORRIDOR_BUFFER_M must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
