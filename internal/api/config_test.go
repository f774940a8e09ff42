package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aggregator-io/aggregator/internal/api"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg := api.LoadServerConfig()

	assert.Equal(t, api.DefaultPort, cfg.Port)
	assert.Equal(t, api.DefaultHost, cfg.Host)
	assert.Equal(t, int64(api.DefaultMaxRequestSize), cfg.MaxRequestSize)
}

func TestLoadServerConfig_ReadsPortFromEnv(t *testing.T) {
	t.Setenv("AGGREGATOR_PORT", "9090")

	cfg := api.LoadServerConfig()
	assert.Equal(t, 9090, cfg.Port)
}

func TestServerConfig_Address(t *testing.T) {
	cfg := api.ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}

func TestServerConfig_Validate_RejectsInvalidPort(t *testing.T) {
	cfg := api.LoadServerConfig()
	cfg.Port = 0

	require.ErrorIs(t, cfg.Validate(), api.ErrInvalidPort)
}

func TestServerConfig_Validate_RejectsEmptyHost(t *testing.T) {
	cfg := api.LoadServerConfig()
	cfg.Host = ""

	require.ErrorIs(t, cfg.Validate(), api.ErrEmptyHost)
}

func TestServerConfig_Validate_AcceptsDefaults(t *testing.T) {
	cfg := api.LoadServerConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerConfig_ToCORSConfig(t *testing.T) {
	cfg := api.LoadServerConfig()
	cors := cfg.ToCORSConfig()

	assert.Equal(t, cfg.CORSAllowedOrigins, cors.GetAllowedOrigins())
	assert.Equal(t, cfg.CORSMaxAge, cors.GetMaxAge())
}
