package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"organize/internal/config"
	"organize/internal/datetaken"
	"organize/internal/failures"
	"organize/internal/mediafile"
)

// Mode selects copy or move semantics.
type Mode int

const (
	ModeCopy Mode = iota
	ModeMove
)

func (m Mode) String() string {
	if m == ModeMove {
		return "move"
	}
	return "copy"
}

// Action is the outcome class of a Decision.
type Action int

const (
	ActionSkipNoMetadata Action = iota
	ActionSkipDuplicate
	ActionPlace
)

func (a Action) String() string {
	switch a {
	case ActionPlace:
		return "place"
	case ActionSkipDuplicate:
		return "skip_duplicate"
	default:
		return "skip_no_metadata"
	}
}

// Decision is the per-file placement outcome. For ActionSkipDuplicate, Target
// is the occupied path.
type Decision struct {
	Action   Action
	Source   string
	Target   string
	Mode     Mode
	Date     datetaken.ResolvedDate
	Sidecars []string
}

// Planner computes placement decisions.
type Planner struct {
	sidecarExts        []string
	sidecarsInCopyMode bool
}

// NewPlanner builds a planner using the sidecar settings in cfg.
func NewPlanner(cfg *config.Config) *Planner {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return &Planner{
		sidecarExts:        cfg.SidecarExtensions(),
		sidecarsInCopyMode: cfg.Organize.SidecarsInCopyMode,
	}
}

// TargetPath returns destRoot/YYYY/MM/basename(source).
func TargetPath(destRoot string, date datetaken.ResolvedDate, source string) string {
	return filepath.Join(
		destRoot,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		filepath.Base(source),
	)
}

// Plan classifies source. The target directory is created before the
// existence check; an error is returned only for filesystem failures.
func (p *Planner) Plan(source string, date datetaken.ResolvedDate, destRoot string, mode Mode) (Decision, error) {
	decision := Decision{Source: source, Mode: mode, Date: date}
	if date.IsAbsent() {
		decision.Action = ActionSkipNoMetadata
		return decision, nil
	}

	target := TargetPath(destRoot, date, source)
	decision.Target = target

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return decision, failures.Wrap(failures.ErrFilesystem, "plan", "create target directory", filepath.Dir(target), err)
	}

	_, err := os.Lstat(target)
	switch {
	case err == nil:
		decision.Action = ActionSkipDuplicate
		return decision, nil
	case !errors.Is(err, fs.ErrNotExist):
		return decision, failures.Wrap(failures.ErrFilesystem, "plan", "check target", target, err)
	}

	decision.Action = ActionPlace
	if mode == ModeMove || p.sidecarsInCopyMode {
		decision.Sidecars = mediafile.Sidecars(source, p.sidecarExts)
	}
	return decision, nil
}
