package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter wraps zap.Logger to implement Logger.
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZap creates a zap-backed logger. Output defaults to stderr so rendered
// documents written to stdout stay clean.
func NewZap(cfg Config) *ZapAdapter {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer := zapcore.AddSync(os.Stderr)
	if cfg.Output != nil {
		writer = zapcore.AddSync(cfg.Output)
	}

	logger := zap.New(zapcore.NewCore(encoder, writer, zapLevel(cfg.Level)))
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}
	return &ZapAdapter{logger: logger}
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, fields ...Field) {
	z.logger.Debug(msg, zapFields(fields)...)
}

// Info logs an info message.
func (z *ZapAdapter) Info(msg string, fields ...Field) {
	z.logger.Info(msg, zapFields(fields)...)
}

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, fields ...Field) {
	z.logger.Warn(msg, zapFields(fields)...)
}

// Error logs an error message with the error attached.
func (z *ZapAdapter) Error(msg string, err error, fields ...Field) {
	out := zapFields(fields)
	if err != nil {
		out = append(out, zap.Error(err))
	}
	z.logger.Error(msg, out...)
}

// WithFields returns a child logger carrying fields on every entry.
func (z *ZapAdapter) WithFields(fields ...Field) Logger {
	if len(fields) == 0 {
		return z
	}
	return &ZapAdapter{logger: z.logger.With(zapFields(fields)...)}
}

// Sync flushes buffered entries.
func (z *ZapAdapter) Sync() error {
	return z.logger.Sync()
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for idx, field := range fields {
		out[idx] = zap.Any(field.Key, field.Value)
	}
	return out
}
