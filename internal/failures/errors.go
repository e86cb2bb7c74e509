package failures

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMetadataAbsent  = errors.New("metadata absent")
	ErrParse           = errors.New("metadata parse failure")
	ErrDuplicateTarget = errors.New("duplicate target")
	ErrFilesystem      = errors.New("filesystem failure")
	ErrInvocation      = errors.New("invocation error")
	ErrConfiguration   = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code maps an error to the stable identifier used in the error_code log field.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMetadataAbsent):
		return "metadata_absent"
	case errors.Is(err, ErrParse):
		return "parse_failure"
	case errors.Is(err, ErrDuplicateTarget):
		return "duplicate_target"
	case errors.Is(err, ErrInvocation):
		return "invocation_error"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrFilesystem):
		return "filesystem_failure"
	default:
		return "unknown"
	}
}

// Fatal reports whether err must abort the whole run rather than a single file.
func Fatal(err error) bool {
	return errors.Is(err, ErrInvocation) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "organize failure"
	}
	return strings.Join(parts, ": ")
}
