package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tag keys that carry a recording timestamp, in preference order.
const (
	TagQuickTimeCreationDate = "com.apple.quicktime.creationdate"
	TagCreationTime          = "creation_time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02 15:04:05",
}

// Result is the subset of ffprobe's JSON output that carries timestamps.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags"`
}

type Format struct {
	Tags map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// CreationTime returns the recording timestamp from format tags, falling back
// to the first video stream. ok is false when no tag is present; err is set
// when a tag is present but unparseable.
func (r Result) CreationTime() (t time.Time, ok bool, err error) {
	candidates := []string{
		lookupTag(r.Format.Tags, TagQuickTimeCreationDate),
		lookupTag(r.Format.Tags, TagCreationTime),
	}
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			candidates = append(candidates, lookupTag(stream.Tags, TagCreationTime))
			break
		}
	}

	var firstErr error
	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		parsed, perr := ParseTimestamp(raw)
		if perr != nil {
			if firstErr == nil {
				firstErr = perr
			}
			continue
		}
		if isPlaceholder(parsed) {
			continue
		}
		return parsed, true, nil
	}
	return time.Time{}, false, firstErr
}

// ParseTimestamp parses the timestamp formats ffprobe and common muxers emit.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func lookupTag(tags map[string]string, key string) string {
	if value, ok := tags[key]; ok {
		return strings.TrimSpace(value)
	}
	for k, value := range tags {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// isPlaceholder reports muxer defaults written when no clock was available.
func isPlaceholder(t time.Time) bool {
	year := t.UTC().Year()
	return year <= 1904 || (year == 1970 && t.UTC().YearDay() == 1)
}
