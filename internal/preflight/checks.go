package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"organize/internal/config"
)

// CheckSourceAccess verifies the source root is a directory that can be listed and read.
func CheckSourceAccess(path string) Result {
	return CheckDirectoryAccess("Source directory", path, unix.R_OK|unix.X_OK)
}

// CheckDestinationAccess creates the destination root if needed and verifies
// it is writable.
func CheckDestinationAccess(path string) Result {
	const name = "Destination directory"
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	return CheckDirectoryAccess(name, path, unix.R_OK|unix.W_OK|unix.X_OK)
}

// CheckDirectoryAccess verifies that the directory exists and grants the
// access bits in mode (unix.R_OK, unix.W_OK, unix.X_OK).
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, accessLabel(mode))}
}

// CheckVideoBackend looks up the external binary the configured video backend
// runs. ok is false for the built-in mp4 backend, which needs none. A missing
// binary is optional: videos fall back to the no-metadata log.
func CheckVideoBackend(cfg *config.Config) (Result, bool) {
	var name string
	switch cfg.Video.Backend {
	case config.VideoBackendFFprobe:
		name = "FFprobe"
	case config.VideoBackendExiftool:
		name = "ExifTool"
	default:
		return Result{}, false
	}
	result := Result{Name: name, Optional: true}
	binary := strings.TrimSpace(cfg.VideoBinary())
	if binary == "" {
		result.Detail = "binary not configured"
		return result, true
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", binary)
		return result, true
	}
	result.Passed = true
	result.Detail = resolved + " (found)"
	return result, true
}

func accessLabel(mode uint32) string {
	switch {
	case mode&unix.W_OK != 0:
		return "read/write"
	case mode&unix.R_OK != 0:
		return "read"
	default:
		return "access"
	}
}
