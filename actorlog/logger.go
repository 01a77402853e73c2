// Package actorlog builds the zap.Logger actorhost uses throughout, and
// provides Go and Wrap, which recover and log panics the same way the
// executor does for actor turns, for goroutines that run outside any one
// actor's panic-isolation boundary (pool workers are launched through
// Wrap).
package actorlog

import (
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lguibr/actorhost/config"
)

// New builds a zap.Logger from LogSettings: development mode gets a
// console encoder and debug-friendly stack traces, production mode gets
// JSON output, and in both cases the configured level is honored.
func New(settings config.LogSettings) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(settings.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if settings.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

// Go runs fn in a new goroutine, recovering and logging any panic instead
// of letting it crash the process.
func Go(log *zap.Logger, name string, fn func()) {
	go func() {
		defer recoverAndLog(log, name)
		fn()
	}()
}

// Wrap adapts fn for use with an errgroup.Group: it recovers and logs a
// panic the same way Go does, but returns instead of spawning, so the
// group can still join on it.
func Wrap(log *zap.Logger, name string, fn func()) func() error {
	return func() (err error) {
		defer recoverAndLog(log, name)
		fn()
		return nil
	}
}

func recoverAndLog(log *zap.Logger, name string) {
	if r := recover(); r != nil {
		log.Error("goroutine panicked",
			zap.String("goroutine", name),
			zap.Any("recover", r),
			zap.ByteString("stack", debug.Stack()),
		)
	}
}
