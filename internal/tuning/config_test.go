package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "aggregator.yaml")

	content := `
queue_capacity: 20000
consumer_max_retries: 5
consumer_retry_backoff: 100ms
shutdown_drain_timeout: 10s
db_busy_timeout: 2s
`
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 20000, cfg.QueueCapacity)
	assert.Equal(t, 5, cfg.ConsumerMaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.ConsumerRetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.ShutdownDrainTimeout)
	assert.Equal(t, 2*time.Second, cfg.DBBusyTimeout)
}

func TestLoadConfig_PartialYAMLKeepsDefaultsForUnsetFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "aggregator.yaml")

	content := `
queue_capacity: 500
`
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)

	require.NoError(t, err)
	assert.Equal(t, 500, cfg.QueueCapacity)
	assert.Equal(t, defaultConsumerMaxRetries, cfg.ConsumerMaxRetries)
	assert.Equal(t, defaultConsumerRetryBackoff, cfg.ConsumerRetryBackoff)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/aggregator.yaml")

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, defaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, defaultConsumerMaxRetries, cfg.ConsumerMaxRetries)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "aggregator.yaml")

	content := `
queue_capacity: [invalid yaml
`
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, defaultQueueCapacity, cfg.QueueCapacity)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "aggregator.yaml")

	err := os.WriteFile(configPath, []byte(""), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)

	require.NoError(t, err)
	assert.Equal(t, defaultQueueCapacity, cfg.QueueCapacity)
}
