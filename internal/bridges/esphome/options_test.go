package esphome

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClientOptions(t *testing.T) {
	cfg := testControllerConfig()
	cfg.Username = "lights"
	cfg.Password = "secret"

	opts := buildClientOptions(cfg)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://mqtt.local:1883", opts.Servers[0].String())
	assert.Equal(t, "sextetlights-cabinet", opts.ClientID)
	assert.Equal(t, "lights", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.CleanSession)
	assert.False(t, opts.AutoReconnect)
	assert.False(t, opts.ConnectRetry)
	assert.Nil(t, opts.TLSConfig)
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testControllerConfig()
	cfg.TLS = true
	cfg.Port = 8883

	opts := buildClientOptions(cfg)

	assert.Equal(t, "ssl://mqtt.local:8883", opts.Servers[0].String())
	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), opts.TLSConfig.MinVersion)
	assert.Empty(t, opts.Username)
}
