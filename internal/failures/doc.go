// Package failures defines the error taxonomy shared by the organizer stages.
//
// Every error that crosses a package boundary is tagged with one marker
// (metadata absent, parse failure, duplicate target, filesystem failure,
// invocation or configuration error) so callers can decide between recovering
// per file and aborting the run with errors.Is instead of string matching.
package failures
