// Package config provides configuration management for the swell
// orchestrator.
//
// Configuration is loaded from environment variables using the env package.
// All settings have sensible defaults except provider API keys, which must
// be supplied for the backends enabled in the registry document.
package config
