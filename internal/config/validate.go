package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOrganize() error {
	ext := c.Organize.SidecarExtension
	if ext == "" {
		return nil
	}
	if ext == "." {
		return errors.New("organize.sidecar_extension must name an extension, e.g. \".AAE\"")
	}
	if strings.ContainsAny(ext, `/\`) || strings.Count(ext, ".") != 1 {
		return fmt.Errorf("organize.sidecar_extension %q must be a single extension like \".AAE\"", ext)
	}
	return nil
}

func (c *Config) validateVideo() error {
	switch c.Video.Backend {
	case VideoBackendMP4, VideoBackendFFprobe, VideoBackendExiftool:
		return nil
	default:
		return fmt.Errorf("video.backend must be one of mp4, ffprobe, exiftool (got %q)", c.Video.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}
