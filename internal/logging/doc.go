// Package logging builds the slog loggers organize writes through: a
// human-readable console handler or slog's JSON handler on stderr, optionally
// teed into a JSON log file, plus helpers that tag records with the component
// and run id.
package logging
