// Package config loads, normalizes, and validates organize configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// ORGANIZE_LOG_LEVEL. The Config type centralizes every knob the CLI and the
// organizer need: sidecar handling, walk filters, the video metadata backend,
// and log routing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
