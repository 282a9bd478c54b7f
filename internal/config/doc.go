// Package config loads, normalizes, and validates scanbay configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCANBAY_SPOOL_DIR. The Config type centralizes every knob the daemon and
// CLI need: spool and archive directories, recognizer binaries, session
// timing policy, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
