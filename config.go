package fabric

import (
	"time"

	"github.com/dmitrymomot/fabric/core/workqueue"
)

// Config holds the configuration for a Hub.
// Load it with config.Load or fill it by hand.
type Config struct {
	workqueue.Config

	Debug           bool          `env:"FABRIC_DEBUG" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"FABRIC_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	return Config{
		Config:          workqueue.DefaultConfig(),
		ShutdownTimeout: 30 * time.Second,
	}
}
