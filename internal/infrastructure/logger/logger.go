package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Option customises logger construction
type Option func(*options)

type options struct {
	extraCores []zapcore.Core
	fields     []zap.Field
}

// WithCore tees every entry to an additional core, such as the OTEL log bridge
func WithCore(core zapcore.Core) Option {
	return func(o *options) {
		if core != nil {
			o.extraCores = append(o.extraCores, core)
		}
	}
}

// WithFields attaches constant fields (service, env) to every entry
func WithFields(fields ...zap.Field) Option {
	return func(o *options) {
		o.fields = append(o.fields, fields...)
	}
}

// New creates a zap logger for the given configuration
func New(cfg Config, opts ...Option) *zap.Logger {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), newWriter(cfg.Output), ParseLevel(cfg.Level))
	if len(o.extraCores) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, o.extraCores...)...)
	}

	l := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if len(o.fields) > 0 {
		l = l.With(o.fields...)
	}
	return l
}

// ParseLevel converts a string level to zapcore.Level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(defaultTimeFormat),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func newWriter(output string) zapcore.WriteSyncer {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout)
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			// Fall back to stdout rather than failing startup
			return zapcore.AddSync(os.Stdout)
		}
		return zapcore.AddSync(file)
	}
}
