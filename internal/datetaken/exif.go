package datetaken

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	dsexif "github.com/dsoprea/go-exif/v3"
	heicexif "github.com/dsoprea/go-heic-exif-extractor/v2"
	pngstructure "github.com/dsoprea/go-png-image-structure/v2"
	"github.com/rwcarlsen/goexif/exif"

	"organize/internal/mediafile"
)

const exifTimestampLayout = "2006:01:02 15:04:05"

var (
	tiffLittleEndian = []byte("II*\x00")
	tiffBigEndian    = []byte("MM\x00*")
)

// imageExtractor reads DateTimeOriginal from JPEG APP1 segments and PNG eXIf chunks.
type imageExtractor struct{}

func (imageExtractor) Extract(_ context.Context, path string) (time.Time, error) {
	if mediafile.Ext(path) == ".png" {
		blob, err := parsePngExif(path)
		if err != nil {
			return time.Time{}, parseError(path, mediafile.KindImage, "read png exif", err)
		}
		if len(blob) == 0 {
			return time.Time{}, absentError(path, mediafile.KindImage, "read png exif", "no eXIf chunk")
		}
		return dateFromBlob(path, mediafile.KindImage, blob)
	}

	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindImage, "open", err)
	}
	defer file.Close()

	x, err := decodeExif(file)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return time.Time{}, absentError(path, mediafile.KindImage, "decode exif", "no EXIF segment")
		}
		return time.Time{}, parseError(path, mediafile.KindImage, "decode exif", err)
	}
	return dateTimeOriginal(path, mediafile.KindImage, x)
}

// heicExtractor pulls the EXIF item out of the HEIF container.
type heicExtractor struct{}

func (heicExtractor) Extract(_ context.Context, path string) (time.Time, error) {
	blob, err := parseHeicExif(path)
	if err != nil {
		return time.Time{}, parseError(path, mediafile.KindHeic, "read heic exif", err)
	}
	if len(blob) == 0 {
		return time.Time{}, absentError(path, mediafile.KindHeic, "read heic exif", "no EXIF item")
	}
	return dateFromBlob(path, mediafile.KindHeic, blob)
}

// dateFromBlob decodes an EXIF payload that may carry an "Exif\0\0" prefix or
// a container offset before the TIFF header.
func dateFromBlob(path string, kind mediafile.Kind, blob []byte) (time.Time, error) {
	start := tiffHeaderIndex(blob)
	if start < 0 {
		return time.Time{}, parseError(path, kind, "decode exif", errors.New("no TIFF header in EXIF blob"))
	}
	x, err := decodeExif(bytes.NewReader(blob[start:]))
	if err != nil {
		return time.Time{}, parseError(path, kind, "decode exif", err)
	}
	return dateTimeOriginal(path, kind, x)
}

// decodeExif wraps exif.Decode, keeping the partial result when only a
// sub-IFD failed to load. A broken GPS or Interop pointer leaves the Exif IFD,
// and with it DateTimeOriginal, readable.
func decodeExif(r io.Reader) (*exif.Exif, error) {
	x, err := exif.Decode(r)
	if err != nil && x != nil && !exif.IsCriticalError(err) {
		return x, nil
	}
	return x, err
}

func tiffHeaderIndex(blob []byte) int {
	le := bytes.Index(blob, tiffLittleEndian)
	be := bytes.Index(blob, tiffBigEndian)
	switch {
	case le < 0:
		return be
	case be < 0:
		return le
	case le < be:
		return le
	default:
		return be
	}
}

func dateTimeOriginal(path string, kind mediafile.Kind, x *exif.Exif) (time.Time, error) {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return time.Time{}, absentError(path, kind, "read DateTimeOriginal", "tag not present")
		}
		return time.Time{}, parseError(path, kind, "read DateTimeOriginal", err)
	}
	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, parseError(path, kind, "read DateTimeOriginal", err)
	}
	value := cleanExifString(raw)
	if isZeroExifTimestamp(value) {
		return time.Time{}, absentError(path, kind, "read DateTimeOriginal", "tag is blank")
	}
	parsed, err := time.Parse(exifTimestampLayout, value)
	if err != nil {
		return time.Time{}, parseError(path, kind, "parse DateTimeOriginal", fmt.Errorf("%q: %w", value, err))
	}
	return parsed, nil
}

func cleanExifString(raw string) string {
	return strings.TrimSpace(strings.Trim(raw, "\x00"))
}

// isZeroExifTimestamp reports values cameras write when their clock was never set.
func isZeroExifTimestamp(value string) bool {
	return value == "" || strings.HasPrefix(value, "0000:00:00") || strings.Trim(value, ": ") == ""
}

func defaultHeicExif(path string) ([]byte, error) {
	mc, err := heicexif.NewHeicExifMediaParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, errors.New("heic container could not be parsed")
	}
	_, data, err := mc.Exif()
	if err != nil {
		if errors.Is(err, dsexif.ErrNoExif) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func defaultPngExif(path string) ([]byte, error) {
	mc, err := pngstructure.NewPngMediaParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, errors.New("png could not be parsed")
	}
	_, data, err := mc.Exif()
	if err != nil {
		if errors.Is(err, dsexif.ErrNoExif) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
