// Package placement decides where a dated media file belongs and performs the
// copy or move.
//
// Plan maps a ResolvedDate to <dest>/<YYYY>/<MM>/<basename>, creating the
// directory chain and classifying the file as Place, SkipDuplicate (target
// already present), or SkipNoMetadata. Execute carries out a Place decision:
// copies are written with O_EXCL, verified with xxhash, and keep the source's
// permissions and timestamps; moves rename without replacing an existing file
// and fall back to copy-then-remove across filesystems. Sidecars follow the
// primary file only after it has been placed, and a sidecar failure never
// undoes the primary placement.
package placement
