// Package mediafile classifies source files by extension and finds the
// edit-metadata sidecars that travel with them.
package mediafile

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind is the metadata family a file belongs to.
type Kind int

const (
	KindUnsupported Kind = iota
	KindImage
	KindHeic
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindHeic:
		return "heic"
	case KindVideo:
		return "video"
	default:
		return "unsupported"
	}
}

var extensionKinds = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".heic": KindHeic,
	".mov":  KindVideo,
	".mp4":  KindVideo,
	// Recognized as video so they are reported as such, but no creation-date
	// reader exists for these containers.
	".avi": KindVideo,
	".mkv": KindVideo,
}

// KindOf returns the kind for path based on its lower-cased extension.
func KindOf(path string) Kind {
	return extensionKinds[Ext(path)]
}

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// MediaFile is a source file and its detected kind.
type MediaFile struct {
	Path string
	Kind Kind
}

// New builds a MediaFile for an absolute path.
func New(path string) MediaFile {
	return MediaFile{Path: path, Kind: KindOf(path)}
}

// Name returns the base file name.
func (m MediaFile) Name() string {
	return filepath.Base(m.Path)
}

// IsSidecar reports whether path carries one of the sidecar extensions.
func IsSidecar(path string, exts []string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	for _, candidate := range exts {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}
	return false
}

// HasParent reports whether a file of a supported kind shares the sidecar's
// base name in its directory. A sidecar without one is an orphan.
func HasParent(sidecar string) bool {
	name := filepath.Base(sidecar)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	entries, err := os.ReadDir(filepath.Dir(sidecar))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		other := entry.Name()
		if entry.IsDir() || other == name {
			continue
		}
		if strings.TrimSuffix(other, filepath.Ext(other)) == stem && KindOf(other) != KindUnsupported {
			return true
		}
	}
	return false
}

// Sidecars returns existing regular files that share path's base name and use
// one of exts. Different spellings that resolve to the same file (as on a
// case-insensitive volume) are reported once.
func Sidecars(path string, exts []string) []string {
	if len(exts) == 0 {
		return nil
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	var (
		found []string
		infos []os.FileInfo
	)
	for _, ext := range exts {
		candidate := stem + ext
		if candidate == path {
			continue
		}
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		duplicate := false
		for _, seen := range infos {
			if os.SameFile(seen, info) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		infos = append(infos, info)
		found = append(found, candidate)
	}
	return found
}
