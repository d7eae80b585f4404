// Package logging provides the structured logger shared by every
// command: zap underneath, a small printf-style interface on top.
// Package edf depends only on the one method it calls (see
// edf.Logger); kernel, rmrcs and batch do not log.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface consumed across the
// module. edf.Logger declares only the Warnf method, so any Logger
// satisfies it structurally without an explicit interface assertion.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	With(fields ...zap.Field) Logger
	Sync() error
}

// Config controls logger construction.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Development bool   `mapstructure:"development"`
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	var encoderCfg zapcore.EncoderConfig
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &zapLogger{z: zap.New(core, opts...)}, nil
}

// NewDefault builds a console, info-level logger, the fallback the
// CLI commands use when New rejects the configured logging settings.
func NewDefault() Logger {
	l, err := New(Config{Level: "info", Format: "console", Development: true})
	if err != nil {
		return &zapLogger{z: zap.NewNop()}
	}
	return l
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.z.Sugar().Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.z.Sugar().Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.z.Sugar().Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.z.Sugar().Errorf(format, args...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
