// Package logging configures winlldp's structured loggers: a JSON file sink
// for the capture worker, and a console-friendly sink for CLI commands,
// including the service-hosted "send --daemon".
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFile returns a zap.Logger writing JSON lines to path in append mode,
// the capture worker's log sink (winlldp_capture.log).
func NewFile(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewConsole returns a zap.Logger for interactive CLI commands: human
// readable, colorized level, no file sink.
func NewConsole(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
