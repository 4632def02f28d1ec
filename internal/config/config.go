package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Module activation and feature flags.
	ModuleEnabled                bool
	KitDescriptionOnProposalLine bool
	DefaultLocale                string

	// Host store (SQLite export of the host database).
	StorePath string

	// Geocoding configuration.
	GeocoderEnabled        bool
	GeocoderBaseURL        string
	GeocoderTimeout        time.Duration
	GeocoderUserAgent      string
	GeocoderReferer        string
	GeocoderForwardReferer bool
	GeocoderCacheSize      int

	// Kafka ingress configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GEOCODER_TIMEOUT", "5s"))
	if err != nil || geocoderTimeout <= 0 {
		return nil, errors.New("invalid GEOCODER_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	kitFlag, err := parseFlag("KIT_DESCRIPTION_ON_PROPOSAL_LINE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModuleEnabled:                os.Getenv("MODULE_ENABLED") != "false",
		KitDescriptionOnProposalLine: kitFlag,
		DefaultLocale:                sharedcfg.EnvOrDefault("DEFAULT_LOCALE", "en_US"),

		StorePath: sharedcfg.EnvOrDefault("STORE_PATH", "triggers.db"),

		GeocoderEnabled:        os.Getenv("GEOCODER_ENABLED") != "false",
		GeocoderBaseURL:        sharedcfg.EnvOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderTimeout:        geocoderTimeout,
		GeocoderUserAgent:      sharedcfg.EnvOrDefault("GEOCODER_USER_AGENT", "crm-trigger-service/1.0"),
		GeocoderReferer:        os.Getenv("GEOCODER_REFERER"),
		GeocoderForwardReferer: os.Getenv("GEOCODER_FORWARD_REFERER") != "false",
		GeocoderCacheSize:      parseCacheSize(),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "crm-events"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "crm-trigger-outcomes"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "crm-triggers"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.StorePath == "" {
		return nil, errors.New("STORE_PATH is required")
	}
	if cfg.GeocoderEnabled && cfg.GeocoderBaseURL == "" {
		return nil, errors.New("GEOCODER_ENABLED is true but GEOCODER_BASE_URL is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

// parseFlag accepts the host's integer flags ("0", "1") as well as booleans.
func parseFlag(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n > 0, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
