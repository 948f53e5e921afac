// Package config loads environment-based configuration into typed structs.
//
// It wraps caarlos0/env with a per-type cache so each configuration struct is
// parsed exactly once per process, and loads a .env file on first use when one
// is present (local development convenience).
//
// Usage:
//
//	type MongoConfig struct {
//	    URL string `env:"MONGODB_URL,required"`
//	}
//
//	var cfg MongoConfig
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
package config
