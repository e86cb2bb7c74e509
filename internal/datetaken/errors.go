package datetaken

import (
	"fmt"

	"organize/internal/failures"
	"organize/internal/mediafile"
)

// ExtractionError describes why no date could be read from a file. Err is
// tagged with failures.ErrMetadataAbsent or failures.ErrParse.
type ExtractionError struct {
	Path string
	Kind mediafile.Kind
	Op   string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s date from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func absentError(path string, kind mediafile.Kind, op, message string) error {
	return &ExtractionError{
		Path: path,
		Kind: kind,
		Op:   op,
		Err:  failures.Wrap(failures.ErrMetadataAbsent, "extract", op, message, nil),
	}
}

func parseError(path string, kind mediafile.Kind, op string, err error) error {
	return &ExtractionError{
		Path: path,
		Kind: kind,
		Op:   op,
		Err:  failures.Wrap(failures.ErrParse, "extract", op, "", err),
	}
}
