package logger

import (
	"sync"

	"github.com/rs/zerolog"

	"dyfetch/pkg/config"
)

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// Initialize sets up the global logger from the given configuration.
// It should be called once at startup, before any logging happens.
func Initialize(cfg *config.LoggingConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
	return nil
}

// GetLogger returns the global logger, creating a default one if
// Initialize was never called.
func GetLogger() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		l, err := New(&config.LoggingConfig{Level: "info"})
		if err != nil {
			l = NewNopLogger()
		}
		globalLogger = l
	}
	return globalLogger
}

// Package-level convenience functions that use the global logger.

func Debug(msg string) { GetLogger().Debug(msg) }
func Info(msg string)  { GetLogger().Info(msg) }
func Warn(msg string)  { GetLogger().Warn(msg) }
func Error(msg string) { GetLogger().Error(msg) }
func Fatal(msg string) { GetLogger().Fatal(msg) }

func DebugWithFields(msg string, fields map[string]interface{}) {
	GetLogger().DebugWithFields(msg, fields)
}

func InfoWithFields(msg string, fields map[string]interface{}) {
	GetLogger().InfoWithFields(msg, fields)
}

func WarnWithFields(msg string, fields map[string]interface{}) {
	GetLogger().WarnWithFields(msg, fields)
}

func ErrorWithFields(msg string, fields map[string]interface{}) {
	GetLogger().ErrorWithFields(msg, fields)
}

func WithField(key string, value interface{}) Logger {
	return GetLogger().WithField(key, value)
}

func WithFields(fields map[string]interface{}) Logger {
	return GetLogger().WithFields(fields)
}

func WithError(err error) Logger {
	return GetLogger().WithError(err)
}

// nopLogger discards everything. Useful as a default in components that
// accept an optional logger.
type nopLogger struct{}

// NewNopLogger returns a logger that discards all output.
func NewNopLogger() Logger {
	return &nopLogger{}
}

func (n *nopLogger) Debug(msg string) {}
func (n *nopLogger) Info(msg string)  {}
func (n *nopLogger) Warn(msg string)  {}
func (n *nopLogger) Error(msg string) {}
func (n *nopLogger) Fatal(msg string) {}

func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) WithField(key string, value interface{}) Logger  { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n *nopLogger) WithError(err error) Logger                      { return n }

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
