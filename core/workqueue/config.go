package workqueue

import "time"

// Config holds the configuration for the queue and its workers.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	LeaseTimeout      time.Duration `env:"FABRIC_LEASE_TIMEOUT" envDefault:"5s"`
	PullInterval      time.Duration `env:"FABRIC_WORKER_PULL_INTERVAL" envDefault:"100ms"`
	MaxConcurrent     int           `env:"FABRIC_WORKER_MAX_CONCURRENT" envDefault:"1"`
	WorkerStopTimeout time.Duration `env:"FABRIC_WORKER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the defaults used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		LeaseTimeout:      5 * time.Second,
		PullInterval:      100 * time.Millisecond,
		MaxConcurrent:     1,
		WorkerStopTimeout: 30 * time.Second,
	}
}
