package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	disabled := Config{}
	assert.NoError(t, disabled.Validate())

	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()
	assert.Error(t, cfg.Validate())

	cfg.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 24*time.Hour, cfg.TTL())

	cfg.StatusTTL = "forever"
	assert.Error(t, cfg.Validate())
}

func TestClient_NilWhenDisabled(t *testing.T) {
	assert.NoError(t, Init(Config{}))
	assert.Nil(t, Client())
	assert.NoError(t, Close())
}
