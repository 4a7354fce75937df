// Package config loads, normalizes, and validates the cutroom configuration
// file. Configuration is read once at process start and treated as immutable.
package config
