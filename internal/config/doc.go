// Package config loads, normalizes, and validates nytbot configuration.
//
// Values come from a TOML file (the --config flag, ~/.config/nytbot/config.toml,
// or ./nytbot.toml in that order) layered over the defaults in defaults.go.
// API credentials may instead be supplied through NYT_API_KEY, OL_ACCESS_KEY,
// and OL_SECRET_KEY, which is how the scheduled job provides them. Paths are
// expanded to absolute form during normalization so callers never deal with
// "~" or relative locations.
package config
