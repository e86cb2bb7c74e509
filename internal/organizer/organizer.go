package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"organize/internal/config"
	"organize/internal/datetaken"
	"organize/internal/failures"
	"organize/internal/logging"
	"organize/internal/mediafile"
	"organize/internal/placement"
	"organize/internal/runlog"
)

// LockFileName is the flock held in the destination root while a run is active.
const LockFileName = ".organize.lock"

// DateResolver resolves the date taken of a path. Resolve never fails.
type DateResolver interface {
	Resolve(ctx context.Context, path string) datetaken.ResolvedDate
	Close() error
}

// Organizer places media from a source tree into a dated destination tree.
type Organizer struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver DateResolver
	planner  *placement.Planner
	executor *placement.Executor
}

// New constructs an organizer with the built-in date resolver.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	return NewWithDependencies(cfg, logger, datetaken.NewResolver(cfg, logger))
}

// NewWithDependencies allows injecting the resolver (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, resolver DateResolver) *Organizer {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return &Organizer{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "organizer"),
		resolver: resolver,
		planner:  placement.NewPlanner(cfg),
		executor: placement.NewExecutor(cfg, logger),
	}
}

// Close releases the resolver's external resources.
func (o *Organizer) Close() error {
	if o.resolver == nil {
		return nil
	}
	return o.resolver.Close()
}

// Run organizes every regular file under sourceRoot into destRoot. The
// returned error is reserved for problems that prevent the run from starting
// or from walking the source root; per-file failures only show up in the
// summary. Cancelling ctx stops the walk between files and yields the partial
// summary with Interrupted set.
func (o *Organizer) Run(ctx context.Context, sourceRoot, destRoot string, mode placement.Mode) (Summary, error) {
	sourceRoot, destRoot, err := resolveRoots(sourceRoot, destRoot)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return Summary{}, failures.Wrap(failures.ErrFilesystem, "organize", "create destination", destRoot, err)
	}

	lock := flock.New(filepath.Join(destRoot, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, failures.Wrap(failures.ErrFilesystem, "organize", "acquire lock", lock.Path(), err)
	}
	if !locked {
		return Summary{}, failures.Wrap(
			failures.ErrInvocation,
			"organize",
			"acquire lock",
			fmt.Sprintf("another organize run is writing to %s", destRoot),
			nil,
		)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			o.logger.Warn("failed to release destination lock", logging.Error(unlockErr))
		}
	}()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)
	summary := newSummary(runID, sourceRoot, destRoot, mode)

	logs, err := runlog.Open(destRoot)
	if err != nil {
		return summary, failures.Wrap(failures.ErrFilesystem, "organize", "open run logs", destRoot, err)
	}

	logger.Info("organize run started",
		logging.String("source_root", sourceRoot),
		logging.String("dest_root", destRoot),
		logging.String(logging.FieldMode, mode.String()),
	)

	filter := newWalkFilter(sourceRoot, destRoot, o.cfg.Organize.ExcludeDirs, o.cfg.Organize.SkipHidden, o.cfg.SidecarExtensions())
	walkErr := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == sourceRoot {
				return err
			}
			summary.Failed++
			logging.ErrorWithContext(logger, "cannot read source entry", "walk_failed",
				logging.String(logging.FieldSource, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry skipped"),
				logging.String(logging.FieldErrorHint, "check permissions on the source tree"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skip, reason := filter.skipDir(path); skip {
				logger.Debug("directory not walked", logging.String(logging.FieldSource, path), logging.String("reason", reason))
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if skip, reason := filter.skipFile(path); skip {
			logger.Debug("file not treated as media", logging.String(logging.FieldSource, path), logging.String("reason", reason))
			return nil
		}
		o.processFile(ctx, logger, logs, path, destRoot, mode, &summary)
		return nil
	})

	if closeErr := logs.Close(); closeErr != nil {
		logging.ErrorWithContext(logger, "failed to finalize run logs", "run_log_failed",
			logging.Error(closeErr),
			logging.String(logging.FieldImpact, "skipped-file logs may be incomplete"),
			logging.String(logging.FieldErrorHint, "check free space in the destination"),
		)
	}
	summary.Duration = time.Since(summary.Started)

	switch {
	case walkErr == nil:
	case errors.Is(walkErr, context.Canceled), errors.Is(walkErr, context.DeadlineExceeded):
		summary.Interrupted = true
		logging.WarnWithContext(logger, "organize run interrupted", "run_interrupted",
			logging.Int("files", summary.Files),
			logging.String(logging.FieldImpact, "remaining files were not processed"),
			logging.String(logging.FieldErrorHint, "run organize again; placed files will be reported as duplicates"),
		)
	default:
		return summary, failures.Wrap(failures.ErrFilesystem, "organize", "walk source", sourceRoot, walkErr)
	}

	logger.Info("organize run completed",
		logging.Int("files", summary.Files),
		logging.Int("placed", summary.Placed),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("no_metadata", summary.NoMetadata),
		logging.Int("failed", summary.Failed),
		logging.Int("sidecars", summary.Sidecars),
		logging.Int64("bytes", summary.Bytes),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (o *Organizer) processFile(ctx context.Context, logger *slog.Logger, logs *runlog.Log, path, destRoot string, mode placement.Mode, summary *Summary) {
	file := mediafile.New(path)
	summary.Files++
	summary.ByKind[file.Kind]++

	date := o.resolver.Resolve(ctx, path)
	decision, err := o.planner.Plan(path, date, destRoot, mode)
	if err != nil {
		o.recordFailure(logger, file, err, summary)
		return
	}

	switch decision.Action {
	case placement.ActionSkipNoMetadata:
		o.recordSkip(logger, logs.RecordNoMetadata, file, decision)
		summary.NoMetadata++
	case placement.ActionSkipDuplicate:
		o.recordSkip(logger, logs.RecordDuplicate, file, decision)
		summary.Duplicates++
	case placement.ActionPlace:
		result, err := o.executor.Execute(ctx, decision)
		if errors.Is(err, failures.ErrDuplicateTarget) {
			decision.Action = placement.ActionSkipDuplicate
			o.recordSkip(logger, logs.RecordDuplicate, file, decision)
			summary.Duplicates++
			return
		}
		if err != nil {
			o.recordFailure(logger, file, err, summary)
			return
		}
		summary.Placed++
		summary.Bytes += result.Bytes
		for _, sidecar := range result.Sidecars {
			switch {
			case sidecar.Placed():
				summary.Sidecars++
			case sidecar.Err != nil:
				summary.SidecarFailures++
			}
		}
		logger.Info("file placed",
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldTarget, decision.Target),
			logging.String(logging.FieldAction, decision.Action.String()),
			logging.String(logging.FieldMode, mode.String()),
			logging.String(logging.FieldKind, file.Kind.String()),
			logging.String(logging.FieldDateTaken, date.String()),
			logging.Int64("bytes", result.Bytes),
		)
	}
}

func (o *Organizer) recordSkip(logger *slog.Logger, record func(string) error, file mediafile.MediaFile, decision placement.Decision) {
	attrs := []logging.Attr{
		logging.String(logging.FieldSource, file.Path),
		logging.String(logging.FieldAction, decision.Action.String()),
		logging.String(logging.FieldKind, file.Kind.String()),
	}
	if decision.Target != "" {
		attrs = append(attrs, logging.String(logging.FieldTarget, decision.Target))
	}
	message := "no date taken; file left in place"
	if decision.Action == placement.ActionSkipDuplicate {
		message = "target already exists; file left in place"
	}
	logger.Info(message, logging.Args(attrs...)...)

	if err := record(file.Path); err != nil {
		logging.ErrorWithContext(logger, "failed to write run log entry", "run_log_failed",
			logging.String(logging.FieldSource, file.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "skipped file missing from run log"),
			logging.String(logging.FieldErrorHint, "check free space in the destination"),
		)
	}
}

func (o *Organizer) recordFailure(logger *slog.Logger, file mediafile.MediaFile, err error, summary *Summary) {
	summary.Failed++
	logging.ErrorWithContext(logger, "file not placed", "placement_failed",
		logging.String(logging.FieldSource, file.Path),
		logging.String(logging.FieldKind, file.Kind.String()),
		logging.Error(err),
		logging.ErrorCode(err),
		logging.String(logging.FieldImpact, "file left at its source location"),
		logging.String(logging.FieldErrorHint, "fix the filesystem problem and run organize again"),
	)
}

// resolveRoots makes both roots absolute and rejects layouts a run cannot
// handle: a source that is not a directory, or a destination equal to or
// containing the source.
func resolveRoots(sourceRoot, destRoot string) (string, string, error) {
	if strings.TrimSpace(sourceRoot) == "" || strings.TrimSpace(destRoot) == "" {
		return "", "", failures.Wrap(failures.ErrInvocation, "organize", "validate arguments", "source and destination are required", nil)
	}
	source, err := filepath.Abs(sourceRoot)
	if err != nil {
		return "", "", failures.Wrap(failures.ErrInvocation, "organize", "resolve source", sourceRoot, err)
	}
	dest, err := filepath.Abs(destRoot)
	if err != nil {
		return "", "", failures.Wrap(failures.ErrInvocation, "organize", "resolve destination", destRoot, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return "", "", failures.Wrap(failures.ErrInvocation, "organize", "stat source", source, err)
	}
	if !info.IsDir() {
		return "", "", failures.Wrap(failures.ErrInvocation, "organize", "stat source", source+" is not a directory", nil)
	}
	if within(source, dest) {
		return "", "", failures.Wrap(
			failures.ErrInvocation,
			"organize",
			"validate arguments",
			fmt.Sprintf("source %s lies inside destination %s", source, dest),
			nil,
		)
	}
	return source, dest, nil
}

// within reports whether path equals root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
