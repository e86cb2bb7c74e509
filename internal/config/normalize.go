package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeOrganize()
	c.normalizeVideo()
	return c.normalizeLogging()
}

func (c *Config) normalizeOrganize() {
	ext := strings.TrimSpace(c.Organize.SidecarExtension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Organize.SidecarExtension = ext

	if len(c.Organize.ExcludeDirs) > 0 {
		dirs := make([]string, 0, len(c.Organize.ExcludeDirs))
		seen := make(map[string]struct{}, len(c.Organize.ExcludeDirs))
		for _, dir := range c.Organize.ExcludeDirs {
			trimmed := strings.TrimSpace(dir)
			if trimmed == "" {
				continue
			}
			if _, exists := seen[trimmed]; exists {
				continue
			}
			seen[trimmed] = struct{}{}
			dirs = append(dirs, trimmed)
		}
		c.Organize.ExcludeDirs = dirs
	}
}

func (c *Config) normalizeVideo() {
	if value, ok := os.LookupEnv("ORGANIZE_VIDEO_BACKEND"); ok && strings.TrimSpace(value) != "" {
		c.Video.Backend = value
	}
	c.Video.Backend = strings.ToLower(strings.TrimSpace(c.Video.Backend))
	if c.Video.Backend == "" {
		c.Video.Backend = defaultVideoBackend
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	c.Video.ExiftoolBinary = strings.TrimSpace(c.Video.ExiftoolBinary)
	if c.Video.ExiftoolBinary == "" {
		c.Video.ExiftoolBinary = defaultExiftoolBinary
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("ORGANIZE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Logging.File))
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
