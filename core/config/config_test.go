package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fabric/core/config"
	"github.com/dmitrymomot/fabric/core/workqueue"
)

type leaseConfig struct {
	Lease time.Duration `env:"TEST_FABRIC_LEASE" envDefault:"3s"`
	Name  string        `env:"TEST_FABRIC_NAME" envDefault:"fabric"`
}

type requiredConfig struct {
	Secret string `env:"TEST_FABRIC_SECRET,required"`
}

func TestLoad(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("TEST_FABRIC_LEASE", "250ms")

	var cfg leaseConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 250*time.Millisecond, cfg.Lease)
	assert.Equal(t, "fabric", cfg.Name)

	t.Setenv("TEST_FABRIC_LEASE", "1h")
	var cached leaseConfig
	require.NoError(t, config.Load(&cached))
	assert.Equal(t, cfg, cached, "second load returns the cached value")

	config.Reset()
	var fresh leaseConfig
	require.NoError(t, config.Load(&fresh))
	assert.Equal(t, time.Hour, fresh.Lease)
}

func TestLoad_Errors(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	assert.ErrorIs(t, config.Load[leaseConfig](nil), config.ErrNilConfig)

	var cfg requiredConfig
	assert.Error(t, config.Load(&cfg))
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoad_WorkqueueDefaults(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	var cfg workqueue.Config
	config.MustLoad(&cfg)
	assert.Equal(t, workqueue.DefaultConfig(), cfg)
}
