package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05"
	maxConsoleValue   = 160
)

// consoleOrder lists the keys printed first at info level, in this order.
var consoleOrder = []string{
	FieldEventType,
	FieldAction,
	FieldMode,
	FieldKind,
	FieldDateTaken,
	FieldSource,
	FieldTarget,
	FieldSidecar,
	FieldErrorCode,
	"error",
	FieldErrorHint,
	FieldImpact,
}

var consoleLabels = map[string]string{
	FieldEventType: "Event",
	FieldErrorCode: "Error Code",
	FieldErrorHint: "Hint",
	FieldDateTaken: "Taken",
	FieldSource:    "Source",
	FieldTarget:    "Target",
}

type field struct {
	key   string
	value slog.Value
}

// consoleHandler writes a header line per record followed by one indented
// line per attribute. Component and run id move into the header.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	prefix    string
	fields    []field
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slices.Clone(h.fields)
	for _, a := range attrs {
		next.fields = appendField(next.fields, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := slices.Clone(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.prefix, a)
		return true
	})
	fields = lastWins(fields)

	var component, runID string
	body := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainString(f.value)
		case FieldRunID:
			runID = plainString(f.value)
			if r.Level < slog.LevelInfo {
				body = append(body, f)
			}
		default:
			body = append(body, f)
		}
	}

	var buf bytes.Buffer
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.In(time.Local).Format(consoleTimeLayout))
	buf.WriteString(" " + levelName(r.Level))
	if component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if runID != "" {
		short, _, _ := strings.Cut(runID, "-")
		buf.WriteString(" Run " + short)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(" – " + msg)
	if h.addSource && r.PC != 0 {
		src, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
	}
	buf.WriteByte('\n')

	if r.Level < slog.LevelInfo {
		for _, f := range body {
			fmt.Fprintf(&buf, "    %s: %s\n", f.key, quoted(f.value))
		}
	} else {
		writeInfoFields(&buf, body)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// writeInfoFields prints the keys in consoleOrder first, then the rest in
// record order. Overlong values other than errors are counted, not printed.
func writeInfoFields(buf *bytes.Buffer, fields []field) {
	slices.SortStableFunc(fields, func(a, b field) int {
		return orderOf(a.key) - orderOf(b.key)
	})
	hidden := 0
	for _, f := range fields {
		value := humanValue(f.key, f.value)
		if len(value) > maxConsoleValue {
			if f.key != "error" {
				hidden++
				continue
			}
			if len(value) > 2*maxConsoleValue {
				value = value[:2*maxConsoleValue] + "…"
			}
		}
		fmt.Fprintf(buf, "    - %s: %s\n", label(f.key), value)
	}
	switch hidden {
	case 0:
	case 1:
		buf.WriteString("    + 1 more field hidden\n")
	default:
		fmt.Fprintf(buf, "    + %d more fields hidden\n", hidden)
	}
}

func orderOf(key string) int {
	if i := slices.Index(consoleOrder, key); i >= 0 {
		return i
	}
	return len(consoleOrder)
}

func appendField(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			fields = appendField(fields, inner, ga)
		}
		return fields
	}
	return append(fields, field{key: prefix + a.Key, value: a.Value})
}

// lastWins drops earlier duplicates of a key, keeping the position of the
// first occurrence and the value of the last.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func humanValue(key string, v slog.Value) string {
	switch v.Kind() {
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case slog.KindDuration:
		d := v.Duration()
		switch {
		case d >= time.Second:
			return d.Round(100 * time.Millisecond).String()
		case d >= time.Millisecond:
			return d.Round(time.Millisecond).String()
		}
		return d.String()
	case slog.KindInt64:
		if key == "bytes" && v.Int64() >= 0 {
			return humanize.Bytes(uint64(v.Int64()))
		}
	}
	return quoted(v)
}

func plainString(v slog.Value) string {
	if err, ok := v.Any().(error); ok && v.Kind() == slog.KindAny {
		return err.Error()
	}
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return fmt.Sprint(v.Any())
}

// quoted renders v for key: value output, quoting strings that contain
// whitespace, '=' or '"'.
func quoted(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		return v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func label(key string) string {
	if l, ok := consoleLabels[key]; ok {
		return l
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
