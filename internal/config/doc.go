// Package config loads the kernos TOML configuration. Missing files fall
// back to defaults; present files are validated before use.
package config
