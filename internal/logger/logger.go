package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig describes an optional rotating JSON log file.
type FileConfig struct {
	Path       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Option adjusts logger construction.
type Option func(*options)

type options struct {
	file *FileConfig
}

// WithFile tees every entry into a lumberjack rotated file.
func WithFile(fc FileConfig) Option {
	return func(o *options) {
		if fc.Path != "" {
			o.file = &fc
		}
	}
}

// New creates a new zap logger
func New(development bool, opts ...Option) (*zap.Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if o.file == nil {
		return log, nil
	}

	if err := os.MkdirAll(filepath.Dir(o.file.Path), 0o755); err != nil {
		return nil, err
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   o.file.Path,
		MaxSize:    o.file.MaxSizeMB,
		MaxBackups: o.file.MaxBackups,
		MaxAge:     o.file.MaxAgeDays,
		Compress:   o.file.Compress,
	})
	// The file always gets JSON so it stays machine readable.
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		sink,
		cfg.Level,
	)
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}

// Must creates a logger or panics
func Must(development bool, opts ...Option) *zap.Logger {
	log, err := New(development, opts...)
	if err != nil {
		panic(err)
	}
	return log
}
