// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties and tags
//   - Format: container-level metadata and tags
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// CreationTime reads the recording date from container tags, preferring the
// QuickTime creationdate key (which keeps the camera's local offset) over
// the generic UTC creation_time.
package ffprobe
