package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debugs, prints, errors []string
}

func (r *recordingLogger) Debugf(format string, v ...any) { r.debugs = append(r.debugs, format) }
func (r *recordingLogger) Printf(format string, v ...any) { r.prints = append(r.prints, format) }
func (r *recordingLogger) Errorf(format string, v ...any) { r.errors = append(r.errors, format) }

func TestDefaultReturnsAZapBackedLoggerWhenUnset(t *testing.T) {
	require.NotNil(t, Default())
	require.IsType(t, &zapLogger{}, Default())
}

func TestSetLoggerInstallsAndIsReturnedByDefault(t *testing.T) {
	defer SetLogger(nil)

	rec := &recordingLogger{}
	SetLogger(rec)
	require.Same(t, Logger(rec), Default())

	Default().Debugf("hello %s", "world")
	require.Equal(t, []string{"hello %s"}, rec.debugs)
}

func TestSetLoggerNilResetsToDefault(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	require.Same(t, Logger(rec), Default())

	SetLogger(nil)
	require.NotSame(t, Logger(rec), Default())
	require.NotNil(t, Default())
}
