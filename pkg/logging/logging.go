// Package logging configures the logrus standard logger.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`     // empty logs to stderr only
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSize:    10,
		MaxAge:     30,
		MaxBackups: 5,
	}
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return err
	}
	if c.File != "" && c.MaxSize <= 0 {
		return fmt.Errorf("invalid log max_size: %d", c.MaxSize)
	}
	return nil
}

// Setup applies cfg to logger. debug forces the debug level. The returned
// closer releases the log file, if any.
func Setup(logger *log.Logger, cfg Config, debug bool) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if cfg.File == "" {
		logger.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	return file, nil
}
