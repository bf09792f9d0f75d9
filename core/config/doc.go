// Package config loads typed configuration from environment variables.
// Each configuration type is parsed once and cached for subsequent calls.
//
// A .env file in the working directory is read on first use, then
// caarlos0/env fills struct fields from their env tags.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/fabric/core/config"
//
//	var cfg fabric.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure at startup
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Every type has its own cache entry:
//
//	var a workqueue.Config
//	config.Load(&a) // reads FABRIC_LEASE_TIMEOUT and friends
//
//	var b workqueue.Config
//	config.Load(&b) // cached, a == b
//
// Call Reset in tests that change the environment between loads.
package config
