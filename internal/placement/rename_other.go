//go:build !linux

package placement

import "os"

func renameNoReplace(src, dst string) error {
	return os.Rename(src, dst)
}
