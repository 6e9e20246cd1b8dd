// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"

	"ddt-backend/internal/config"
)

// New builds a logger from the level/format in cfg. Unknown levels fall back to info.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.LogFormat == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "ddt-backend")), nil
}

// Must is New without the error: it falls back to a bare production logger.
func Must(cfg *config.Config) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Warn("logger config rejected, using defaults", zap.Error(err))
		return fallback
	}
	return logger
}
