package logging

import (
	"context"
	"log/slog"
)

// Structured keys shared by every component. FieldRunID identifies one
// organize invocation; FieldImpact is the user-facing consequence of a warning.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldErrorCode = "error_code"
	FieldImpact    = "impact"
	FieldSource    = "source_path"
	FieldTarget    = "target_path"
	FieldSidecar   = "sidecar"
	FieldKind      = "kind"
	FieldAction    = "action"
	FieldMode      = "mode"
	FieldDateTaken = "date_taken"
)

type runIDKey struct{}

// WithRunID attaches a run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// WithContext returns logger tagged with the run id stored in ctx, if any.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return logger.With(String(FieldRunID, id))
	}
	return logger
}
