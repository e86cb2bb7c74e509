package organizer

import (
	"time"

	"organize/internal/mediafile"
	"organize/internal/placement"
)

// Summary reports the outcome of one run.
type Summary struct {
	RunID           string
	Mode            placement.Mode
	SourceRoot      string
	DestRoot        string
	Files           int
	Placed          int
	Duplicates      int
	NoMetadata      int
	Failed          int
	Sidecars        int
	SidecarFailures int
	Bytes           int64
	ByKind          map[mediafile.Kind]int
	Started         time.Time
	Duration        time.Duration
	Interrupted     bool
}

// Copied returns the number of files placed in copy mode.
func (s Summary) Copied() int {
	if s.Mode == placement.ModeCopy {
		return s.Placed
	}
	return 0
}

// Moved returns the number of files placed in move mode.
func (s Summary) Moved() int {
	if s.Mode == placement.ModeMove {
		return s.Placed
	}
	return 0
}

// Skipped is the number of files that stayed at their source location
// without a failure.
func (s Summary) Skipped() int {
	return s.Duplicates + s.NoMetadata
}

func newSummary(runID, sourceRoot, destRoot string, mode placement.Mode) Summary {
	return Summary{
		RunID:      runID,
		Mode:       mode,
		SourceRoot: sourceRoot,
		DestRoot:   destRoot,
		ByKind:     make(map[mediafile.Kind]int),
		Started:    time.Now(),
	}
}
