package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "storefront"

var (
	mu   sync.RWMutex
	base *zap.Logger
)

// Options selects the encoder and minimum level of the process logger.
// An empty Level keeps the environment's default: info in production,
// debug elsewhere.
type Options struct {
	Env   string
	Level string
}

func (o Options) config() (zap.Config, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if o.Env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.EncoderConfig = zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	}

	if o.Level != "" {
		lvl, err := zap.ParseAtomicLevel(o.Level)
		if err != nil {
			return cfg, fmt.Errorf("invalid log level %q: %w", o.Level, err)
		}
		cfg.Level = lvl
	}
	return cfg, nil
}

// Init builds the process logger. Every line carries the service and env.
func Init(o Options) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Replace(l.With(zap.String("service", serviceName), zap.String("env", o.Env)))
	return nil
}

// Replace swaps the process logger and returns a func restoring the
// previous one.
func Replace(l *zap.Logger) (restore func()) {
	mu.Lock()
	prev := base
	base = l
	mu.Unlock()

	return func() { Replace(prev) }
}

// L returns the process logger, building one from APP_ENV and LOG_LEVEL
// on first use.
func L() *zap.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}

	if err := Init(Options{Env: os.Getenv("APP_ENV"), Level: os.Getenv("LOG_LEVEL")}); err != nil {
		fallback := zap.NewExample()
		fallback.Warn("falling back to example logger", zap.Error(err))
		Replace(fallback)
	}
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}
