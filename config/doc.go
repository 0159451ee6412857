// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, provider entries, routing mode, circuit breaker
// tunables and health check intervals. Invalid configuration is rejected at
// load time so the process never starts with a bad provider table.
package config
