package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler sends each record to the console handler and to the JSON log
// file handler. Each side applies its own level.
type teeHandler struct {
	primary, file slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.primary.Enabled(ctx, level) || t.file.Enabled(ctx, level)
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if t.primary.Enabled(ctx, r.Level) {
		errs = append(errs, t.primary.Handle(ctx, r.Clone()))
	}
	if t.file.Enabled(ctx, r.Level) {
		errs = append(errs, t.file.Handle(ctx, r))
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{primary: t.primary.WithAttrs(attrs), file: t.file.WithAttrs(attrs)}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{primary: t.primary.WithGroup(name), file: t.file.WithGroup(name)}
}
