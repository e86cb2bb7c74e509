package config

import (
	"fmt"
	"strings"
)

// Overrides carries command-line values that take precedence over the file
// and the environment. Empty fields leave the loaded value alone.
type Overrides struct {
	LogLevel     string
	LogFormat    string
	VideoBackend string
}

// Apply layers o onto c and re-validates the result.
func (o Overrides) Apply(c *Config) error {
	if level := strings.ToLower(strings.TrimSpace(o.LogLevel)); level != "" {
		c.Logging.Level = level
	}
	if format := strings.ToLower(strings.TrimSpace(o.LogFormat)); format != "" {
		if format != "console" && format != "json" {
			return fmt.Errorf("log format must be console or json (got %q)", o.LogFormat)
		}
		c.Logging.Format = format
	}
	if backend := strings.ToLower(strings.TrimSpace(o.VideoBackend)); backend != "" {
		c.Video.Backend = backend
	}
	return c.Validate()
}
