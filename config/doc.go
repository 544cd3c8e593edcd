// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, logging, default circuit breaker tunables, and
// per-dependency overrides with optional active probes.
package config
