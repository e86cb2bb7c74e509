// Package main hosts the organize CLI entrypoint and command graph.
//
// The root command takes a source and a destination directory, runs the
// preflight checks, drives one organizer run, and prints a summary table.
// The config subcommands scaffold and validate the TOML configuration file.
// Keep this package lean: behaviour lives in the internal packages and is only
// surfaced here.
package main
