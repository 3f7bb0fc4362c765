// Package stdlogger adapts the global zerolog logger to printf style logger interfaces
// such as the ones expected by gorm and go-redis.
package stdlogger

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to zerolog.
type Logger struct {
	component string
	level     zerolog.Level
}

// New returns a Logger whose Printf calls are logged at info level.
func New() *Logger {
	return &Logger{level: zerolog.InfoLevel}
}

// For returns a Logger tagging every line with component and logging Printf calls at level.
func For(component string, level zerolog.Level) *Logger {
	return &Logger{component: component, level: level}
}

func (l *Logger) emit(level zerolog.Level, format string, args ...any) {
	ev := log.WithLevel(level)
	if l.component != "" {
		ev = ev.Str("component", l.component)
	}

	ev.Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Printf implements gorm's logger.Writer.
func (l *Logger) Printf(format string, args ...any) {
	l.emit(l.level, format, args...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.emit(zerolog.DebugLevel, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.emit(zerolog.InfoLevel, format, args...) }

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) { l.emit(zerolog.WarnLevel, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.emit(zerolog.ErrorLevel, format, args...) }

// ContextLogger adapts Logger to go-redis' internal.Logging interface.
type ContextLogger struct {
	*Logger
}

// Printf implements go-redis' logger interface.
func (c ContextLogger) Printf(_ context.Context, format string, args ...any) {
	c.emit(c.level, format, args...)
}
