package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"organize/internal/config"
	"organize/internal/failures"
	"organize/internal/placement"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var moveFlag bool
	var overrides config.Overrides

	ctx := newCommandContext(&configFlag, &overrides)

	rootCmd := &cobra.Command{
		Use:   "organize <source_dir> <dest_dir>",
		Short: "Sort photos and videos into year/month folders by date taken",
		Long: `Sort photos and videos into <dest_dir>/YYYY/MM/ using the capture date stored in
each file's metadata. Files without a date are listed in no_metadata_log.txt and
files whose target name is already taken in duplicate_files_log.txt; both stay
where they are. Files are copied unless --move is given.`,
		Args:          requireSourceAndDest,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mode := placement.ModeCopy
			if moveFlag {
				mode = placement.ModeMove
			}
			return runOrganize(cmd, cfg, args[0], args[1], mode)
		},
	}

	rootCmd.Flags().BoolVar(&moveFlag, "move", false, "Move files instead of copying them")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&overrides.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&overrides.LogFormat, "log-format", "", "Log format override (console, json)")
	rootCmd.PersistentFlags().StringVar(&overrides.VideoBackend, "video-backend", "", "Video date backend override (mp4, ffprobe, exiftool)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(cmd, err.Error())
	})

	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func requireSourceAndDest(cmd *cobra.Command, args []string) error {
	if len(args) == 2 {
		return nil
	}
	return usageError(cmd, fmt.Sprintf("expected <source_dir> and <dest_dir>, got %d argument(s)", len(args)))
}

// usageError prints the command usage to stderr and returns an invocation error.
func usageError(cmd *cobra.Command, msg string) error {
	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return failures.Wrap(failures.ErrInvocation, "cli", "parse arguments", msg, nil)
}
