package datetaken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"organize/internal/config"
	"organize/internal/failures"
	"organize/internal/logging"
	"organize/internal/mediafile"
)

// Extractor reads a capture timestamp for one media kind.
type Extractor interface {
	Extract(ctx context.Context, path string) (time.Time, error)
}

// Resolver maps a path to its ResolvedDate.
type Resolver struct {
	logger     *slog.Logger
	extractors map[mediafile.Kind]Extractor
}

// NewResolver wires the built-in extractors, selecting the video backend from cfg.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	backend := config.VideoBackendMP4
	var ffprobeBinary, exiftoolBinary string
	if cfg != nil {
		backend = cfg.Video.Backend
		ffprobeBinary = cfg.Video.FFprobeBinary
		exiftoolBinary = cfg.Video.ExiftoolBinary
	}

	var video Extractor
	switch backend {
	case config.VideoBackendFFprobe:
		video = ffprobeExtractor{binary: ffprobeBinary}
	case config.VideoBackendExiftool:
		video = newExiftoolExtractor(exiftoolBinary)
	default:
		video = mp4Extractor{}
	}

	return NewResolverWithExtractors(logger, map[mediafile.Kind]Extractor{
		mediafile.KindImage: imageExtractor{},
		mediafile.KindHeic:  heicExtractor{},
		mediafile.KindVideo: videoExtractor{backend: video},
	})
}

// NewResolverWithExtractors builds a resolver over a custom extractor set.
// Kinds without an extractor resolve to Absent.
func NewResolverWithExtractors(logger *slog.Logger, extractors map[mediafile.Kind]Extractor) *Resolver {
	copied := make(map[mediafile.Kind]Extractor, len(extractors))
	for kind, extractor := range extractors {
		if extractor != nil && kind != mediafile.KindUnsupported {
			copied[kind] = extractor
		}
	}
	return &Resolver{
		logger:     logging.NewComponentLogger(logger, "datetaken"),
		extractors: copied,
	}
}

// Resolve returns the capture date for path or Absent. It never fails.
func (r *Resolver) Resolve(ctx context.Context, path string) ResolvedDate {
	logger := logging.WithContext(ctx, r.logger)
	kind := mediafile.KindOf(path)
	extractor, ok := r.extractors[kind]
	if !ok {
		logger.Debug("no date reader for extension",
			logging.String(logging.FieldSource, path),
			logging.String("extension", mediafile.Ext(path)),
		)
		return Absent()
	}

	taken, err := safeExtract(ctx, extractor, path, kind)
	if err == nil {
		logger.Debug("date resolved",
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldKind, kind.String()),
			logging.String(logging.FieldDateTaken, taken.Format(displayLayout)),
		)
		return At(taken)
	}

	if errors.Is(err, failures.ErrMetadataAbsent) {
		logger.Debug("date not present",
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldKind, kind.String()),
			logging.String("reason", err.Error()),
		)
	} else {
		logging.WarnWithContext(logger, "date metadata unreadable", "metadata_parse_failed",
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldKind, kind.String()),
			logging.Error(err),
			logging.ErrorCode(err),
			logging.String(logging.FieldErrorHint, "inspect the file with exiftool; it may be truncated or in an unexpected layout"),
			logging.String(logging.FieldImpact, "file recorded in no_metadata_log.txt"),
		)
	}
	return Absent()
}

// Close releases long-lived extractor resources such as the exiftool process.
func (r *Resolver) Close() error {
	var errs []error
	for _, extractor := range r.extractors {
		if closer, ok := extractor.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func safeExtract(ctx context.Context, extractor Extractor, path string, kind mediafile.Kind) (taken time.Time, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			taken = time.Time{}
			err = parseError(path, kind, "extract", fmt.Errorf("extractor panic: %v", recovered))
		}
	}()
	return extractor.Extract(ctx, path)
}
