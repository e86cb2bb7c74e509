package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"organize/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a default config whose log file (if any) lands in a
// per-test temp directory, then applies opts.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	builder := &configBuilder{
		t:       t,
		baseDir: t.TempDir(),
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithVideoBackend selects the video metadata backend.
func WithVideoBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.Backend = backend
	}
}

// WithSidecarsInCopyMode enables sidecar copies without --move.
func WithSidecarsInCopyMode() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.SidecarsInCopyMode = true
	}
}

// WithExcludeDirs sets the walk exclusions.
func WithExcludeDirs(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.ExcludeDirs = append([]string(nil), dirs...)
	}
}

// WithLogFile routes the JSON log copy into the test temp directory.
func WithLogFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.File = filepath.Join(b.baseDir, "logs", name)
	}
}

// WithStubbedBinary writes an executable shell script named name and
// prepends its directory to PATH. An empty body exits 0.
func WithStubbedBinary(name, body string) ConfigOption {
	return func(b *configBuilder) {
		if body == "" {
			body = "exit 0\n"
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// Dirs creates a fresh source and destination directory pair.
func Dirs(t testing.TB) (source, dest string) {
	t.Helper()
	base := t.TempDir()
	source = filepath.Join(base, "source")
	dest = filepath.Join(base, "dest")
	for _, dir := range []string{source, dest} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return source, dest
}

// WithFFprobeBinary sets the ffprobe executable used by the ffprobe backend.
func WithFFprobeBinary(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.FFprobeBinary = path
	}
}
