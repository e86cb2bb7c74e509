package main

import (
	"errors"
	"fmt"
	"os"

	"organize/internal/failures"
)

const (
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// errInterrupted reports a run stopped by a signal after its partial summary was printed.
var errInterrupted = errors.New("run interrupted")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted):
		return exitInterrupted
	case errors.Is(err, failures.ErrInvocation):
		return exitUsage
	default:
		return exitFailure
	}
}
