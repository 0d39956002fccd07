// Package logger builds the application's zap logger.
package logger

import "go.uber.org/zap"

// New configures a production-mode logger. An empty or unrecognized level
// falls back to info.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		if lvl, err := zap.ParseAtomicLevel(level); err == nil {
			cfg.Level = lvl
		}
	}
	return cfg.Build()
}
