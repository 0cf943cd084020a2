// Package config loads and validates the anitransfer TOML configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/anitransfer/config.toml, then ./anitransfer.toml. Missing files
// fall back to defaults so the tool works out of the box.
package config
