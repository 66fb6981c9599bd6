// Package config loads, normalizes, and validates the benchtail TOML
// configuration.
//
// Load resolves the config path (explicit flag, then
// ~/.config/benchtail/config.toml, then a project-local benchtail.toml),
// merges file values over Default(), expands paths, applies environment
// fallbacks, and validates the result. Components receive a *Config that is
// already normalized; they never re-expand paths or re-check ranges.
package config
