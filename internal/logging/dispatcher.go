package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// CommandLogger writes dispatcher events to zerolog. Every entry carries the
// component it was scoped to; an "error" value goes through Err and a
// duration is logged under its key with an "_ms" suffix.
type CommandLogger struct {
	logger zerolog.Logger
}

// NewCommandLogger scopes logger to component.
func NewCommandLogger(logger zerolog.Logger, component string) *CommandLogger {
	return &CommandLogger{logger: logger.With().Str("component", component).Logger()}
}

func (l *CommandLogger) Debug(msg string, keysAndValues ...any) {
	l.write(l.logger.Debug(), msg, keysAndValues)
}

func (l *CommandLogger) Info(msg string, keysAndValues ...any) {
	l.write(l.logger.Info(), msg, keysAndValues)
}

func (l *CommandLogger) Error(msg string, keysAndValues ...any) {
	l.write(l.logger.Error(), msg, keysAndValues)
}

// write drops non-string keys and a trailing key with no value.
func (l *CommandLogger) write(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			if key == "error" {
				e = e.Err(v)
			} else {
				e = e.AnErr(key, v)
			}
		case time.Duration:
			e = e.Float64(key+"_ms", float64(v)/float64(time.Millisecond))
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
