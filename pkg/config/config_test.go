package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalAddresses(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 8080}
	assert.Equal(t, "localhost:8080", cfg.LocalHost())
	assert.Equal(t, "http://localhost:8080", cfg.LocalOrigin())
}

func TestOutboundOrigin(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, "http://10.0.0.1:21025", cfg.OutboundOrigin("http://10.0.0.1:21025"))

	cfg.InternalBackend = "http://192.168.0.5:21025"
	assert.Equal(t, "http://192.168.0.5:21025", cfg.OutboundOrigin("http://10.0.0.1:21025"))
}
