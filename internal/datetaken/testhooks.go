package datetaken

import (
	"context"

	"organize/internal/media/ffprobe"
)

var (
	parseHeicExif = defaultHeicExif
	parsePngExif  = defaultPngExif
	probeVideo    = ffprobe.Inspect
)

// SetHeicParserForTests overrides the HEIC EXIF reader during tests.
func SetHeicParserForTests(fn func(string) ([]byte, error)) func() {
	previous := parseHeicExif
	parseHeicExif = fn
	return func() {
		parseHeicExif = previous
	}
}

// SetPngParserForTests overrides the PNG eXIf reader during tests.
func SetPngParserForTests(fn func(string) ([]byte, error)) func() {
	previous := parsePngExif
	parsePngExif = fn
	return func() {
		parsePngExif = previous
	}
}

// SetProbeForTests overrides the ffprobe runner during tests.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	previous := probeVideo
	probeVideo = fn
	return func() {
		probeVideo = previous
	}
}
