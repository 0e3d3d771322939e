package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Config is the full kernos configuration.
type Config struct {
	Console ConsoleConfig `toml:"console"`
	Log     LogConfig     `toml:"log"`
}

// ConsoleConfig sizes the console. Zero Rows and Cols take the video
// backend's size at startup.
type ConsoleConfig struct {
	Rows            int  `toml:"rows"`
	Cols            int  `toml:"cols"`
	TabSize         int  `toml:"tab_size"`
	ScrollbackRows  int  `toml:"scrollback_rows"`
	DisableTabStops bool `toml:"disable_tab_stops"`
}

// LogConfig controls logging. An empty File logs to stderr.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a TOML configuration from path layered over Default. A
// missing file is not an error: the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate bounds-checks the configuration.
func (c Config) Validate() error {
	con := c.Console

	if con.Rows < 0 || con.Cols < 0 {
		return fmt.Errorf("%w: rows and cols must not be negative", ErrInvalidConsole)
	}
	if (con.Rows == 0) != (con.Cols == 0) {
		return fmt.Errorf("%w: rows and cols must be set together", ErrInvalidConsole)
	}
	if con.Rows > 0 && con.Cols < 2 {
		return fmt.Errorf("%w: at least 2 cols required", ErrInvalidConsole)
	}
	if con.TabSize < 0 {
		return fmt.Errorf("%w: tab_size must not be negative", ErrInvalidConsole)
	}
	if con.Cols > 0 && con.TabSize > con.Cols {
		return fmt.Errorf("%w: tab_size %d exceeds cols %d", ErrInvalidConsole, con.TabSize, con.Cols)
	}
	if con.ScrollbackRows < 0 {
		return fmt.Errorf("%w: scrollback_rows must not be negative", ErrInvalidConsole)
	}

	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
		}
	}
	return nil
}
