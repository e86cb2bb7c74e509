package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"organize/internal/config"
	"organize/internal/failures"
	"organize/internal/logging"
	"organize/internal/organizer"
	"organize/internal/placement"
	"organize/internal/preflight"
)

func runOrganize(cmd *cobra.Command, cfg *config.Config, source, dest string, mode placement.Mode) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	status := newStatusWriter(stderr)

	sourceRoot, err := config.ExpandPath(source)
	if err != nil {
		return failures.Wrap(failures.ErrInvocation, "cli", "resolve source", source, err)
	}
	destRoot, err := config.ExpandPath(dest)
	if err != nil {
		return failures.Wrap(failures.ErrInvocation, "cli", "resolve destination", dest, err)
	}

	results := preflight.RunAll(cfg, sourceRoot, destRoot)
	for _, r := range preflight.Warnings(results) {
		status.warn(r.Name, r.Detail+"; videos will be logged as having no metadata")
	}
	if blocking := preflight.Blocking(results); len(blocking) > 0 {
		details := make([]string, 0, len(blocking))
		for _, r := range blocking {
			status.fail(r.Name, r.Detail)
			details = append(details, r.Name+": "+r.Detail)
		}
		return failures.Wrap(failures.ErrInvocation, "preflight", "check directories", strings.Join(details, "; "), nil)
	}

	logger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Writer:   stderr,
		FilePath: cfg.Logging.File,
	})
	if err != nil {
		return failures.Wrap(failures.ErrConfiguration, "cli", "init logger", "Failed to initialize logging", err)
	}

	org := organizer.New(cfg, logger)
	defer func() {
		if closeErr := org.Close(); closeErr != nil {
			logger.Warn("failed to stop metadata backend", logging.Error(closeErr))
		}
	}()

	summary, err := org.Run(signalCtx, sourceRoot, destRoot, mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSummary(summary))
	if summary.Interrupted {
		status.warn("Run", "interrupted; summary covers the files processed so far")
		return errInterrupted
	}
	switch {
	case summary.Failed > 0:
		status.fail("Run", fmt.Sprintf("%d file(s) could not be placed; see the log above", summary.Failed))
	case summary.SidecarFailures > 0:
		status.warn("Run", fmt.Sprintf("%d sidecar(s) could not be placed", summary.SidecarFailures))
	default:
		status.ok("Run", "completed")
	}
	return nil
}
