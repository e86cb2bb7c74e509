package organizer

import (
	"os"
	"path/filepath"
	"strings"

	"organize/internal/mediafile"
	"organize/internal/runlog"
)

// walkFilter decides which entries under the source root are media candidates.
type walkFilter struct {
	sourceRoot  string
	destRoot    string
	skipHidden  bool
	excluded    map[string]struct{}
	reserved    map[string]struct{}
	sidecarExts []string
}

func newWalkFilter(sourceRoot, destRoot string, excludeDirs []string, skipHidden bool, sidecarExts []string) walkFilter {
	f := walkFilter{
		sourceRoot:  sourceRoot,
		destRoot:    destRoot,
		skipHidden:  skipHidden,
		excluded:    make(map[string]struct{}, len(excludeDirs)),
		reserved:    make(map[string]struct{}, 3),
		sidecarExts: sidecarExts,
	}
	for _, dir := range excludeDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(sourceRoot, dir)
		}
		f.excluded[filepath.Clean(dir)] = struct{}{}
	}
	for _, name := range append(runlog.FileNames(), LockFileName) {
		f.reserved[filepath.Join(destRoot, name)] = struct{}{}
	}
	return f
}

// skipDir reports why a directory below the source root is not walked.
func (f walkFilter) skipDir(path string) (bool, string) {
	if path == f.sourceRoot {
		return false, ""
	}
	if path == f.destRoot {
		return true, "destination"
	}
	if _, ok := f.excluded[path]; ok {
		return true, "excluded"
	}
	if f.skipHidden && isHidden(path) {
		return true, "hidden"
	}
	return false, ""
}

// skipFile reports why a regular file is not treated as media. Sidecars
// travel with their parent; orphans fall through and are logged as having no
// metadata.
func (f walkFilter) skipFile(path string) (bool, string) {
	if _, ok := f.reserved[path]; ok {
		return true, "run file"
	}
	if f.skipHidden && isHidden(path) {
		return true, "hidden"
	}
	if mediafile.IsSidecar(path, f.sidecarExts) {
		// In move mode the parent may already have taken it along.
		if _, err := os.Lstat(path); err != nil {
			return true, "sidecar already placed"
		}
		if mediafile.HasParent(path) {
			return true, "sidecar"
		}
	}
	return false, ""
}

func isHidden(path string) bool {
	name := filepath.Base(path)
	return len(name) > 1 && strings.HasPrefix(name, ".")
}
