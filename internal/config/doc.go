// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the job engine and shell settings while keeping configuration
// details separate from the coordination logic.
package config
