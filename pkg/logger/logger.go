// Package logger wraps a zap sugared logger behind package-level helpers so
// call sites stay as simple as logger.Info("msg", "key", value).
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

// Init configures the global logger. Production environments get JSON output
// at info level, everything else gets the development console encoder with
// debug enabled.
func Init(environment string) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log = l.Sugar()
}

func ensure() *zap.SugaredLogger {
	if log == nil {
		Init("development")
	}
	return log
}

func Debug(msg string, keysAndValues ...any) { ensure().Debugw(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)  { ensure().Infow(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)  { ensure().Warnw(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...any) { ensure().Errorw(msg, keysAndValues...) }
func Fatal(msg string, keysAndValues ...any) { ensure().Fatalw(msg, keysAndValues...) }

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
