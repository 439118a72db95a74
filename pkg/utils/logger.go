package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true it uses the development config
// (console encoding, debug level); otherwise the production config (JSON, info level).
// Both write to stderr.
func NewLogger(debug bool) (*zap.Logger, error) {
	return NewLoggerTo(debug)
}

// NewLoggerTo is NewLogger with explicit output paths ("stderr", "stdout" or file paths).
// With no paths the config default (stderr) is kept.
func NewLoggerTo(debug bool, paths ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = !debug
	if len(paths) > 0 {
		cfg.OutputPaths = paths
		cfg.ErrorOutputPaths = paths
	}
	return cfg.Build()
}
