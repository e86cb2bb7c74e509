// Package datetaken determines when a photo or video was captured.
//
// Each media kind has an Extractor that reads format-specific metadata:
// EXIF DateTimeOriginal for JPEG and PNG, the EXIF blob embedded in HEIC
// containers, and the container creation time for MOV/MP4 (read natively
// from moov/mvhd, or through ffprobe or exiftool when configured).
// Extractors report failures as *ExtractionError values.
//
// The Resolver dispatches by extension and folds every outcome, including
// extractor panics, into a ResolvedDate that is either a timestamp or Absent.
// Diagnostics go to the logger only.
package datetaken
