package placement

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/djherbis/times"
)

// copyFile writes src to a new dst, never replacing an existing file. dst is
// removed again if any step fails, including verification.
func copyFile(src, dst string, verify bool) (written int64, err error) {
	source, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("source %q is not a regular file", src)
	}

	dest, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	hasher := xxhash.New()
	written, err = io.Copy(io.MultiWriter(dest, hasher), source)
	if err != nil {
		dest.Close()
		return 0, fmt.Errorf("copy data: %w", err)
	}
	if err := dest.Sync(); err != nil {
		dest.Close()
		return 0, fmt.Errorf("sync destination: %w", err)
	}
	if err := dest.Close(); err != nil {
		return 0, fmt.Errorf("close destination: %w", err)
	}

	if verify {
		if err := verifyCopy(dst, info.Size(), hasher.Sum64()); err != nil {
			return 0, err
		}
	}
	if err := preserveMetadata(src, dst, info); err != nil {
		return 0, err
	}
	return written, nil
}

func verifyCopy(path string, wantSize int64, wantSum uint64) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open copy for verification: %w", err)
	}
	defer file.Close()

	hasher := xxhash.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return fmt.Errorf("read copy for verification: %w", err)
	}
	if size != wantSize {
		return fmt.Errorf("verify copy: size mismatch (source %d bytes, copy %d bytes)", wantSize, size)
	}
	if sum := hasher.Sum64(); sum != wantSum {
		return fmt.Errorf("verify copy: checksum mismatch (source %016x, copy %016x)", wantSum, sum)
	}
	return nil
}

// preserveMetadata applies the source permission bits and access/modification times.
func preserveMetadata(src, dst string, info os.FileInfo) error {
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("preserve permissions: %w", err)
	}
	atime, mtime := info.ModTime(), info.ModTime()
	if ts, err := times.Stat(src); err == nil {
		atime, mtime = ts.AccessTime(), ts.ModTime()
	}
	if err := os.Chtimes(dst, atime, mtime); err != nil {
		return fmt.Errorf("preserve timestamps: %w", err)
	}
	return nil
}

// moveFile renames src to dst without replacing an existing dst. Across
// filesystems it copies, verifies, and then removes src; src is never removed
// unless dst is complete.
func moveFile(src, dst string, verify bool) (int64, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if _, err := os.Lstat(dst); err == nil {
		return 0, fmt.Errorf("move: %w", fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("stat destination: %w", err)
	}

	if err := renameFunc(src, dst); err != nil {
		if !isEXDEV(err) {
			return 0, fmt.Errorf("rename: %w", err)
		}
		written, err := copyFile(src, dst, verify)
		if err != nil {
			return 0, fmt.Errorf("copy across devices: %w", err)
		}
		if err := os.Remove(src); err != nil {
			return written, fmt.Errorf("remove source after copy: %w", err)
		}
		return written, nil
	}
	return info.Size(), nil
}

func isEXDEV(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var le *os.LinkError
	return errors.As(err, &le) && errors.Is(le.Err, syscall.EXDEV)
}
