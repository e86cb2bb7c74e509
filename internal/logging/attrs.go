package logging

import (
	"context"
	"log/slog"
	"time"

	"organize/internal/failures"
)

type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error records err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorCode tags a record with the failure classification of err.
func ErrorCode(err error) Attr {
	return slog.String(FieldErrorCode, failures.Code(err))
}

// Args converts attrs for the variadic slog.Logger methods.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Values supplied in attrs take precedence over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultHint),
		String(FieldImpact, "operation completed with warnings"),
	)
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultHint),
	)
	logger.Error(msg, Args(attrs...)...)
}

const defaultHint = "check logs for details"

func withDefaults(attrs []Attr, defaults ...Attr) []Attr {
	for _, d := range defaults {
		present := false
		for _, a := range attrs {
			if a.Key == d.Key {
				present = true
				break
			}
		}
		if !present {
			attrs = append(attrs, d)
		}
	}
	return attrs
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler { return d }

func (d discardHandler) WithGroup(string) slog.Handler { return d }
