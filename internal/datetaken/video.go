package datetaken

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/abema/go-mp4"
	"github.com/barasher/go-exiftool"

	"organize/internal/mediafile"
)

// Seconds between the QuickTime epoch (1904-01-01) and the Unix epoch.
const quickTimeEpochOffset = 2082844800

var isoBMFFExtensions = map[string]struct{}{
	".mov": {},
	".mp4": {},
}

var exiftoolDateKeys = []string{"CreateDate", "MediaCreateDate", "TrackCreateDate"}

var exiftoolLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05Z",
}

// videoExtractor rejects containers without a creation-date reader before
// handing the file to the configured backend.
type videoExtractor struct {
	backend Extractor
}

func (v videoExtractor) Extract(ctx context.Context, path string) (time.Time, error) {
	if _, ok := isoBMFFExtensions[mediafile.Ext(path)]; !ok {
		return time.Time{}, absentError(path, mediafile.KindVideo, "select container", "unsupported video container "+mediafile.Ext(path))
	}
	return v.backend.Extract(ctx, path)
}

func (v videoExtractor) Close() error {
	if closer, ok := v.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// mp4Extractor reads moov/mvhd creation_time. The value is UTC.
type mp4Extractor struct{}

func (mp4Extractor) Extract(_ context.Context, path string) (time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "open", err)
	}
	defer file.Close()

	boxes, err := mp4.ExtractBoxWithPayload(file, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "read moov/mvhd", err)
	}
	for _, box := range boxes {
		mvhd, ok := box.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		created := mvhd.GetCreationTime()
		if created < quickTimeEpochOffset {
			return time.Time{}, absentError(path, mediafile.KindVideo, "read mvhd", "creation time not set")
		}
		return time.Unix(int64(created-quickTimeEpochOffset), 0).UTC(), nil
	}
	return time.Time{}, absentError(path, mediafile.KindVideo, "read moov/mvhd", "mvhd box not found")
}

// ffprobeExtractor reads creation tags through an ffprobe binary.
type ffprobeExtractor struct {
	binary string
}

func (f ffprobeExtractor) Extract(ctx context.Context, path string) (time.Time, error) {
	result, err := probeVideo(ctx, f.binary, path)
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "ffprobe", err)
	}
	created, ok, err := result.CreationTime()
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "parse creation_time", err)
	}
	if !ok {
		return time.Time{}, absentError(path, mediafile.KindVideo, "read creation_time", "no creation tag")
	}
	return created, nil
}

// exiftoolExtractor keeps one exiftool process for the whole run.
type exiftoolExtractor struct {
	binary string

	mu      sync.Mutex
	et      *exiftool.Exiftool
	initErr error
}

func newExiftoolExtractor(binary string) *exiftoolExtractor {
	return &exiftoolExtractor{binary: binary}
}

func (e *exiftoolExtractor) start() (*exiftool.Exiftool, error) {
	if e.et != nil || e.initErr != nil {
		return e.et, e.initErr
	}
	var opts []func(*exiftool.Exiftool) error
	if strings.TrimSpace(e.binary) != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(e.binary))
	}
	e.et, e.initErr = exiftool.NewExiftool(opts...)
	return e.et, e.initErr
}

func (e *exiftoolExtractor) Extract(_ context.Context, path string) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	et, err := e.start()
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "start exiftool", err)
	}
	infos := et.ExtractMetadata(path)
	if len(infos) == 0 {
		return time.Time{}, absentError(path, mediafile.KindVideo, "exiftool", "no metadata returned")
	}
	if infos[0].Err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "exiftool", infos[0].Err)
	}
	created, ok, err := createDateFromFields(infos[0].Fields)
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindVideo, "parse CreateDate", err)
	}
	if !ok {
		return time.Time{}, absentError(path, mediafile.KindVideo, "read CreateDate", "no creation date field")
	}
	return created, nil
}

func (e *exiftoolExtractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.et == nil {
		return nil
	}
	err := e.et.Close()
	e.et = nil
	return err
}

// createDateFromFields picks the first populated QuickTime date field.
func createDateFromFields(fields map[string]interface{}) (time.Time, bool, error) {
	for _, key := range exiftoolDateKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return time.Time{}, false, fmt.Errorf("%s: unexpected value type %T", key, raw)
		}
		value = cleanExifString(value)
		if isZeroExifTimestamp(value) {
			continue
		}
		parsed, err := parseExiftoolTimestamp(value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%s: %w", key, err)
		}
		return parsed, true, nil
	}
	return time.Time{}, false, nil
}

func parseExiftoolTimestamp(value string) (time.Time, error) {
	for _, layout := range exiftoolLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
