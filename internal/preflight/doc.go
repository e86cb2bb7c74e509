// Package preflight provides readiness checks run before an organize run
// touches any file.
//
// The source root must be a readable directory and the destination root must
// be creatable and writable; a failure in either aborts the run with an
// invocation error. The external binary behind the selected video backend is
// checked as well, but a missing binary only produces a warning: every video
// then lands in the no-metadata log.
package preflight
