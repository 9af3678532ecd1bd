// Package logging builds the zap logger used by the planners and the CLI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains logging configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Format is the output format (console, json)
	Format string `yaml:"format" json:"format"`

	// Output is the output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Development enables development mode
	Development bool `yaml:"development" json:"development"`
}

// DefaultConfig returns the defaults: warnings and above, console format, stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	}
}

// New builds a logger from cfg. The returned close func flushes the logger
// and releases a file Output; call it once when logging is done.
func New(cfg Config) (*zap.Logger, func() error, error) {
	var (
		w    io.Writer
		file *os.File
	)
	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log output: %w", err)
		}
		file, w = f, zapcore.Lock(f)
	}

	logger, err := NewWithWriter(cfg, w)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, nil, err
	}

	closeFn := func() error {
		if file == nil {
			// Sync on a terminal fails with EINVAL.
			_ = logger.Sync()
			return nil
		}
		return errors.Join(logger.Sync(), file.Close())
	}
	return logger, closeFn, nil
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q (want console or json)", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	if cfg.Development {
		return zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	}
	return zap.New(core), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
