package logcollection

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ===== ZAP BACKEND ADAPTER =====

// ZapAdapter provides a Zap backend implementation that hides zap types from users
type ZapAdapter struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

// NewZapAdapter creates a new Zap backend adapter
func NewZapAdapter(config ZapConfig) (*ZapAdapter, error) {
	zapLogger, err := createZapLogger(config)
	if err != nil {
		return nil, err
	}
	return NewZapAdapterFromLogger(zapLogger), nil
}

// NewZapAdapterFromLogger wraps an already built zap logger
func NewZapAdapterFromLogger(zapLogger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{
		logger: zapLogger,
		sugar:  zapLogger.Sugar(),
	}
}

func (z *ZapAdapter) Debugf(format string, args ...interface{}) {
	z.sugar.Debugf(format, args...)
}

func (z *ZapAdapter) Infof(format string, args ...interface{}) {
	z.sugar.Infof(format, args...)
}

func (z *ZapAdapter) Warnf(format string, args ...interface{}) {
	z.sugar.Warnf(format, args...)
}

func (z *ZapAdapter) Errorf(format string, args ...interface{}) {
	z.sugar.Errorf(format, args...)
}

// LogWithFields implements structured logging
func (z *ZapAdapter) LogWithFields(level LogLevel, msg string, fields ...LogField) {
	z.logAtLevel(level, msg, z.convertFields(fields)...)
}

// WithFields creates a new logger with additional fields
func (z *ZapAdapter) WithFields(fields ...LogField) StructuredLogger {
	return NewZapAdapterFromLogger(z.logger.With(z.convertFields(fields)...))
}

// WithError creates a new logger with an error field
func (z *ZapAdapter) WithError(err error) StructuredLogger {
	return z.WithFields(Error(err))
}

// Sync flushes any buffered log entries
func (z *ZapAdapter) Sync() error {
	return z.logger.Sync()
}

// ===== INTERNAL CONVERSION METHODS =====

func (z *ZapAdapter) convertFields(fields []LogField) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = z.convertSingleField(field)
	}
	return zapFields
}

func (z *ZapAdapter) convertSingleField(field LogField) zap.Field {
	switch field.Type {
	case StringField:
		return zap.String(field.Key, field.Value.(string))
	case IntField:
		return zap.Int(field.Key, field.Value.(int))
	case BoolField:
		return zap.Bool(field.Key, field.Value.(bool))
	case DurationField:
		return zap.Duration(field.Key, field.Value.(time.Duration))
	case TimeField:
		return zap.Time(field.Key, field.Value.(time.Time))
	case ErrorField:
		if err, ok := field.Value.(error); ok {
			return zap.Error(err)
		}
		return zap.String(field.Key, "invalid error field")
	default:
		return zap.Any(field.Key, field.Value)
	}
}

func (z *ZapAdapter) logAtLevel(level LogLevel, msg string, fields ...zap.Field) {
	switch level {
	case DebugLevel:
		z.logger.Debug(msg, fields...)
	case InfoLevel:
		z.logger.Info(msg, fields...)
	case WarnLevel:
		z.logger.Warn(msg, fields...)
	case ErrorLevel:
		z.logger.Error(msg, fields...)
	default:
		z.logger.Info(msg, fields...)
	}
}

// ===== ZAP CONFIGURATION =====

// ZapConfig defines Zap-specific configuration
type ZapConfig struct {
	Level      string `yaml:"level"`      // "debug", "info", "warn", "error"
	Format     string `yaml:"format"`     // "json", "console"
	Output     string `yaml:"output"`     // "stdout", "stderr", file path
	Caller     bool   `yaml:"caller"`     // Include caller information
	Stacktrace bool   `yaml:"stacktrace"` // Include stacktrace on errors
}

func createZapLogger(config ZapConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	switch config.Format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default: // "json" or anything else
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var writeSyncer zapcore.WriteSyncer
	switch config.Output {
	case "stdout", "":
		writeSyncer = zapcore.Lock(zapcore.AddSync(os.Stdout))
	case "stderr":
		writeSyncer = zapcore.Lock(zapcore.AddSync(os.Stderr))
	default:
		sink, _, err := zap.Open(config.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to open log output %q: %w", config.Output, err)
		}
		writeSyncer = sink
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	opts := []zap.Option{}
	if config.Caller {
		opts = append(opts, zap.AddCaller())
	}
	if config.Stacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(core, opts...), nil
}

// DefaultZapConfig returns a sensible default Zap configuration
func DefaultZapConfig() ZapConfig {
	return ZapConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		Caller:     false,
		Stacktrace: true,
	}
}
