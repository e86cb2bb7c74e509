package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Organize contains placement and walk behaviour.
type Organize struct {
	// SidecarExtension is the edit-metadata sidecar extension moved with its
	// parent file (Apple Photos writes .AAE).
	SidecarExtension string `toml:"sidecar_extension"`
	// SidecarsInCopyMode copies sidecars alongside their parent in copy mode.
	// Move mode always carries sidecars.
	SidecarsInCopyMode bool     `toml:"sidecars_in_copy_mode"`
	SkipHidden         bool     `toml:"skip_hidden"`
	ExcludeDirs        []string `toml:"exclude_dirs"`
	VerifyCopies       bool     `toml:"verify_copies"`
}

// Video selects how creation dates are read from MOV/MP4 containers.
type Video struct {
	Backend        string `toml:"backend"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	ExiftoolBinary string `toml:"exiftool_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for organize.
type Config struct {
	Organize Organize `toml:"organize"`
	Video    Video    `toml:"video"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SidecarExtensions returns the sidecar extension as configured followed by its
// lower-case form when that differs, so both IMG_1.AAE and IMG_1.aae are found.
func (c *Config) SidecarExtensions() []string {
	ext := strings.TrimSpace(c.Organize.SidecarExtension)
	if ext == "" {
		return nil
	}
	exts := []string{ext}
	if lower := strings.ToLower(ext); lower != ext {
		exts = append(exts, lower)
	}
	return exts
}

// VideoBinary returns the external executable used by the selected video
// backend, or "" when the backend is pure Go.
func (c *Config) VideoBinary() string {
	switch c.Video.Backend {
	case VideoBackendFFprobe:
		return c.Video.FFprobeBinary
	case VideoBackendExiftool:
		return c.Video.ExiftoolBinary
	default:
		return ""
	}
}
