package observability

import (
	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface used across
// the application packages.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerolog wraps a zerolog.Logger in the Logger interface.
func NewZerolog(zl zerolog.Logger) Logger {
	return zerologLogger{zl: zl}
}

func (l zerologLogger) Debug(msg string, fields ...Field) {
	applyFields(l.zl.Debug(), fields).Msg(msg)
}

func (l zerologLogger) Info(msg string, fields ...Field) {
	applyFields(l.zl.Info(), fields).Msg(msg)
}

func (l zerologLogger) Warn(msg string, fields ...Field) {
	applyFields(l.zl.Warn(), fields).Msg(msg)
}

func (l zerologLogger) Error(msg string, fields ...Field) {
	applyFields(l.zl.Error(), fields).Msg(msg)
}

func (l zerologLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			ctx = ctx.Str(f.Key(), v)
		case int:
			ctx = ctx.Int(f.Key(), v)
		case int64:
			ctx = ctx.Int64(f.Key(), v)
		case float64:
			ctx = ctx.Float64(f.Key(), v)
		case error:
			ctx = ctx.AnErr(f.Key(), v)
		default:
			ctx = ctx.Interface(f.Key(), v)
		}
	}
	return zerologLogger{zl: ctx.Logger()}
}

func applyFields(ev *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			ev = ev.Str(f.Key(), v)
		case int:
			ev = ev.Int(f.Key(), v)
		case int64:
			ev = ev.Int64(f.Key(), v)
		case float64:
			ev = ev.Float64(f.Key(), v)
		case error:
			ev = ev.AnErr(f.Key(), v)
		default:
			ev = ev.Interface(f.Key(), v)
		}
	}
	return ev
}
