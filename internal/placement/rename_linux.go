//go:build linux

package placement

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// renameNoReplace fails with EEXIST instead of replacing dst. Filesystems
// without RENAME_NOREPLACE fall back to a plain rename.
func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.ENOTSUP) {
		return os.Rename(src, dst)
	}
	return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
}
