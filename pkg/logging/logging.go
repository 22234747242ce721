// Package logging builds the zap loggers used by the receiver binaries
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv overrides the configured log level when set
const LevelEnv = "FCM_RECEIVER_LOG_LEVEL"

// Config selects the logger level and output format
type Config struct {
	Level       string // debug, info, warn, error
	Development bool
	Encoding    string // json or console
}

// DefaultConfig returns the production logging configuration
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Encoding: "json",
	}
}

// New builds a logger from cfg, applying the LevelEnv override
func New(cfg Config) (*zap.Logger, error) {
	levelName := cfg.Level
	if env := strings.TrimSpace(os.Getenv(LevelEnv)); env != "" {
		levelName = env
	}

	level := zap.InfoLevel
	if levelName != "" {
		parsed, err := zapcore.ParseLevel(levelName)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
		}
		level = parsed
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Encoding {
	case "":
	case "json", "console":
		zcfg.Encoding = cfg.Encoding
	default:
		return nil, fmt.Errorf("invalid log encoding %q", cfg.Encoding)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Install makes logger the process-wide zap logger and returns a function
// restoring the previous one.
func Install(logger *zap.Logger) func() {
	return zap.ReplaceGlobals(logger)
}
