// Package config provides type-safe environment variable loading with
// caching using Go generics. Each configuration type is loaded once and
// cached for subsequent calls.
//
// The package loads a .env file on first use and parses environment
// variables into struct fields with the caarlos0/env library.
//
// Basic usage:
//
//	import (
//		"github.com/flowgate/flowgate/core/config"
//		"github.com/flowgate/flowgate/core/server"
//	)
//
//	func main() {
//		var cfg server.Config
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process; a second Load
// of the same type returns the first result, so every component sees the
// same configuration regardless of load order. Different types are cached
// independently.
package config
