package app

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dshills/kernos/internal/config"
)

// newLogger builds the process logger from config, with the command-line
// level taking precedence. A configured file is opened in append mode and
// stays open for the life of the process; otherwise logs go to stderr.
func newLogger(cfg config.LogConfig, override string) (*logrus.Logger, error) {
	levelStr := cfg.Level
	if override != "" {
		levelStr = override
	}
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", levelStr, err)
	}

	log := logrus.New()
	log.SetLevel(level)

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		log.SetOutput(f)
	}
	return log, nil
}
