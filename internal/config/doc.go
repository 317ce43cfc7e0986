// Package config loads, validates, and defaults podium's TOML configuration.
package config
