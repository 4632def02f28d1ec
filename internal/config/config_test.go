package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.ModuleEnabled)
	assert.False(t, cfg.KitDescriptionOnProposalLine)
	assert.Equal(t, "en_US", cfg.DefaultLocale)
	assert.Equal(t, "triggers.db", cfg.StorePath)
	assert.True(t, cfg.GeocoderEnabled)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocoderBaseURL)
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, "crm-trigger-service/1.0", cfg.GeocoderUserAgent)
	assert.Empty(t, cfg.GeocoderReferer)
	assert.True(t, cfg.GeocoderForwardReferer)
	assert.Equal(t, 1000, cfg.GeocoderCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "crm-events", cfg.KafkaSourceTopic)
	assert.Equal(t, "crm-trigger-outcomes", cfg.KafkaSinkTopic)
	assert.Equal(t, "crm-triggers", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MODULE_ENABLED", "false")
	t.Setenv("KIT_DESCRIPTION_ON_PROPOSAL_LINE", "1")
	t.Setenv("DEFAULT_LOCALE", "fr_FR")
	t.Setenv("STORE_PATH", "/var/lib/crm/host.db")
	t.Setenv("GEOCODER_ENABLED", "false")
	t.Setenv("GEOCODER_BASE_URL", "http://geocoder.internal")
	t.Setenv("GEOCODER_TIMEOUT", "2s")
	t.Setenv("GEOCODER_USER_AGENT", "acme-crm/2.0")
	t.Setenv("GEOCODER_REFERER", "https://crm.example.com")
	t.Setenv("GEOCODER_FORWARD_REFERER", "false")
	t.Setenv("GEOCODER_CACHE_SIZE", "200")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.ModuleEnabled)
	assert.True(t, cfg.KitDescriptionOnProposalLine)
	assert.Equal(t, "fr_FR", cfg.DefaultLocale)
	assert.Equal(t, "/var/lib/crm/host.db", cfg.StorePath)
	assert.False(t, cfg.GeocoderEnabled)
	assert.Equal(t, "http://geocoder.internal", cfg.GeocoderBaseURL)
	assert.Equal(t, 2*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, "acme-crm/2.0", cfg.GeocoderUserAgent)
	assert.Equal(t, "https://crm.example.com", cfg.GeocoderReferer)
	assert.False(t, cfg.GeocoderForwardReferer)
	assert.Equal(t, 200, cfg.GeocoderCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidGeocoderTimeout(t *testing.T) {
	t.Setenv("GEOCODER_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_TIMEOUT")
}

func TestLoad_NegativeGeocoderTimeout(t *testing.T) {
	t.Setenv("GEOCODER_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_KitFlagAcceptsBooleans(t *testing.T) {
	t.Setenv("KIT_DESCRIPTION_ON_PROPOSAL_LINE", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KitDescriptionOnProposalLine)

	t.Setenv("KIT_DESCRIPTION_ON_PROPOSAL_LINE", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.KitDescriptionOnProposalLine)
}

func TestLoad_InvalidKitFlag(t *testing.T) {
	t.Setenv("KIT_DESCRIPTION_ON_PROPOSAL_LINE", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KIT_DESCRIPTION_ON_PROPOSAL_LINE")
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("GEOCODER_CACHE_SIZE", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.GeocoderCacheSize)
}
