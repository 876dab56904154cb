// Package config handles configuration loading and management for teapot.
//
// It provides functionality for:
//   - Loading configuration from .teapot.yaml, teapot.yaml or .teapot.json
//   - Default configuration values
//   - Merging command line overrides over file values
package config
