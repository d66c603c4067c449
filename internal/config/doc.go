// Package config loads and merges archcheck configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (ARCHCHECK_PROVIDER, ARCHCHECK_MODEL, ARCHCHECK_THRESHOLD, etc.)
//  3. A .env file in the working directory (never overrides real environment variables)
//  4. Config file ($ARCHCHECK_CONFIG or $XDG_CONFIG_HOME/archcheck/config.json, .toml accepted)
//  5. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key by its dotted name.
package config
