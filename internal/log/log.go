// Package log provides centralized logging using the zap logger.
package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu         sync.RWMutex
	log        *zap.SugaredLogger
	baseLogger *zap.Logger
)

// Init initializes the package-level logger. Debug mode uses zap's development
// config, which enables the per-step pipeline logging.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	mu.Lock()
	baseLogger = zapLogger
	log = zapLogger.Sugar()
	mu.Unlock()
	return nil
}

func ensure() *zap.SugaredLogger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		baseLogger, _ = zap.NewProduction(zap.AddCallerSkip(1))
		log = baseLogger.Sugar()
	}
	return log
}

// GetZapLogger returns the base zap logger for callers that need it, such as GORM
func GetZapLogger() *zap.Logger {
	ensure()
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

// GetSugaredLogger returns the sugared logger for injection into components.
// The caller skip used by the package helpers is removed again.
func GetSugaredLogger() *zap.SugaredLogger {
	return ensure().Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar()
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}

func Debug(args ...interface{}) {
	ensure().Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	ensure().Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	ensure().Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	ensure().Info(args...)
}

func Infof(template string, args ...interface{}) {
	ensure().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	ensure().Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	ensure().Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	ensure().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	ensure().Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	ensure().Error(args...)
}

func Errorf(template string, args ...interface{}) {
	ensure().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	ensure().Errorw(msg, keysAndValues...)
}

func Fatal(args ...interface{}) {
	ensure().Fatal(args...)
	os.Exit(1)
}

func Fatalf(template string, args ...interface{}) {
	ensure().Fatalf(template, args...)
	os.Exit(1)
}
