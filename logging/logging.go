// Package logging provides the Logger interface shared across playsync,
// together with a zap-backed default implementation. Call SetLogger to
// replace the default, the same way avebi.SetLogger works.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is the minimal surface every package in this module logs through.
type Logger interface {
	Debugf(format string, v ...any)
	Printf(format string, v ...any)
	Errorf(format string, v ...any)
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debugf(format string, v ...any) { l.sugar.Debugf(format, v...) }
func (l *zapLogger) Printf(format string, v ...any)  { l.sugar.Infof(format, v...) }
func (l *zapLogger) Errorf(format string, v ...any)  { l.sugar.Errorf(format, v...) }

var (
	mu      sync.RWMutex
	pkgLog  Logger = newDefault()
)

func newDefault() Logger {
	z, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on sink construction; fall back to a
		// no-op sugared logger rather than panicking from an init path.
		z = zap.NewNop()
	}
	return &zapLogger{sugar: z.Sugar()}
}

// SetLogger installs logger as the package-wide default used by workers
// and the pipeline coordinator when they are constructed without an
// explicit Logger.
func SetLogger(logger Logger) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		pkgLog = newDefault()
		return
	}
	pkgLog = logger
}

// Default returns the currently installed package-wide Logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return pkgLog
}
