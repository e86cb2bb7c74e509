package placement

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"organize/internal/config"
	"organize/internal/failures"
	"organize/internal/logging"
)

// SidecarResult reports what happened to one sidecar.
type SidecarResult struct {
	Source  string
	Target  string
	Skipped bool
	Err     error
}

// Placed reports whether the sidecar reached its target.
func (s SidecarResult) Placed() bool {
	return !s.Skipped && s.Err == nil
}

// Result describes the filesystem effect of an executed decision.
type Result struct {
	Bytes    int64
	Sidecars []SidecarResult
}

// Executor performs Place decisions.
type Executor struct {
	logger       *slog.Logger
	verifyCopies bool
}

// NewExecutor builds an executor honouring cfg.Organize.VerifyCopies.
func NewExecutor(cfg *config.Config, logger *slog.Logger) *Executor {
	verify := true
	if cfg != nil {
		verify = cfg.Organize.VerifyCopies
	}
	return &Executor{
		logger:       logging.NewComponentLogger(logger, "placement"),
		verifyCopies: verify,
	}
}

// Execute applies d. Skip decisions are no-ops. A returned error means the
// primary file was not placed and, in move mode, its source is intact.
func (e *Executor) Execute(ctx context.Context, d Decision) (Result, error) {
	if d.Action != ActionPlace {
		return Result{}, nil
	}

	written, err := e.transfer(d.Source, d.Target, d.Mode)
	if err != nil {
		marker := failures.ErrFilesystem
		if errors.Is(err, fs.ErrExist) {
			marker = failures.ErrDuplicateTarget
		}
		return Result{}, failures.Wrap(marker, "place", d.Mode.String(), d.Source, err)
	}

	result := Result{Bytes: written}
	if len(d.Sidecars) == 0 {
		return result, nil
	}

	logger := logging.WithContext(ctx, e.logger)
	targetDir := filepath.Dir(d.Target)
	for _, sidecar := range d.Sidecars {
		sr := SidecarResult{Source: sidecar, Target: filepath.Join(targetDir, filepath.Base(sidecar))}
		if _, statErr := os.Lstat(sr.Target); statErr == nil {
			sr.Skipped = true
			logging.WarnWithContext(logger, "sidecar target already exists", "sidecar_duplicate",
				logging.String(logging.FieldSidecar, sidecar),
				logging.String(logging.FieldTarget, sr.Target),
				logging.String(logging.FieldImpact, "sidecar left at its source location"),
				logging.String(logging.FieldErrorHint, "compare the two sidecars and keep the one matching the placed photo"),
			)
			result.Sidecars = append(result.Sidecars, sr)
			continue
		}
		n, err := e.transfer(sidecar, sr.Target, d.Mode)
		if err != nil {
			sr.Err = failures.Wrap(failures.ErrFilesystem, "place", "sidecar "+d.Mode.String(), sidecar, err)
			logging.WarnWithContext(logger, "sidecar not placed", "sidecar_failed",
				logging.String(logging.FieldSidecar, sidecar),
				logging.String(logging.FieldTarget, sr.Target),
				logging.Error(sr.Err),
				logging.ErrorCode(sr.Err),
				logging.String(logging.FieldImpact, "primary file placed without its sidecar"),
				logging.String(logging.FieldErrorHint, "move the sidecar manually next to the placed file"),
			)
			result.Sidecars = append(result.Sidecars, sr)
			continue
		}
		result.Bytes += n
		logger.Info("sidecar placed",
			logging.String(logging.FieldSidecar, sidecar),
			logging.String(logging.FieldTarget, sr.Target),
			logging.String(logging.FieldMode, d.Mode.String()),
		)
		result.Sidecars = append(result.Sidecars, sr)
	}
	return result, nil
}

func (e *Executor) transfer(src, dst string, mode Mode) (int64, error) {
	if mode == ModeMove {
		return moveFile(src, dst, e.verifyCopies)
	}
	return copyFile(src, dst, e.verifyCopies)
}
