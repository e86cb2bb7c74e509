// Package organizer drives one organize run.
//
// It walks the source tree, resolves each file's date taken, asks the
// placement planner for a decision, executes it, and records skipped files in
// the run logs under the destination root. A per-file failure is logged and
// counted; the walk moves on. The destination is guarded by a flock so two runs
// never write the same tree at once.
package organizer
