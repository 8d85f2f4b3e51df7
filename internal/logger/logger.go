// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "nadlan"

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
)

// Init builds the global logger for env. Later calls are ignored.
//
//	production  JSON, info and above
//	test        console, warnings and above
//	otherwise   console with debug output
func Init(env string) {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		return
	}

	base, err := build(env)
	if err != nil {
		base = zap.NewNop()
	}
	sugar = base.With(zap.String("service", serviceName)).Sugar()
}

func build(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	case "test":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.DisableStacktrace = true
		return cfg.Build()
	default:
		return zap.NewDevelopment()
	}
}

// Get returns the global logger, initializing a development one on first use.
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := sugar
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("development")
	return Get()
}

// Named returns a child logger for one component ("rates", "cache", "audit").
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes buffered entries. Call before exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if sugar != nil {
		_ = sugar.Sync()
	}
}
