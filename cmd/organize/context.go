package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"organize/internal/config"
	"organize/internal/failures"
)

type commandContext struct {
	configFlag *string
	overrides  *config.Overrides

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string, overrides *config.Overrides) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		overrides:  overrides,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = failures.Wrap(failures.ErrConfiguration, "config", "load", "Failed to load configuration", err)
			return
		}
		if c.overrides != nil {
			if err := c.overrides.Apply(cfg); err != nil {
				c.configErr = failures.Wrap(failures.ErrConfiguration, "config", "apply flags", "Invalid command-line override", err)
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
