package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// statusWriter prints one-line run status messages to stderr, colored only
// when stderr is a terminal.
type statusWriter struct {
	out   io.Writer
	color bool
}

func newStatusWriter(out io.Writer) statusWriter {
	return statusWriter{out: out, color: isTerminal(out)}
}

func (w statusWriter) ok(subject, message string) {
	w.print(subject, "OK", text.Colors{text.FgGreen}, message)
}

func (w statusWriter) warn(subject, message string) {
	w.print(subject, "WARN", text.Colors{text.FgYellow}, message)
}

func (w statusWriter) fail(subject, message string) {
	w.print(subject, "ERROR", text.Colors{text.FgRed, text.Bold}, message)
}

func (w statusWriter) print(subject, tag string, colors text.Colors, message string) {
	fmt.Fprintln(w.out, formatStatus(subject, tag, message, colors, w.color))
}

// formatStatus renders "subject: [TAG] message" with the subject padded so
// consecutive lines align.
func formatStatus(subject, tag, message string, colors text.Colors, color bool) string {
	line := text.Pad(subject+":", 22, ' ') + " [" + tag + "]"
	if message != "" {
		line += " " + message
	}
	if color {
		return colors.Sprint(line)
	}
	return line
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
