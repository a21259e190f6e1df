package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/storepush/storepush/internal/config"
	"github.com/storepush/storepush/internal/service/push"
)

// newConfigCommand groups subcommands that manage the settings file.
func newConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Manage the storepush settings file.",
	}

	command.AddCommand(newConfigInitCommand())

	return command
}

// newConfigInitCommand writes a settings file so defaults such as the
// credentials path do not have to be repeated on every invocation. The file
// location follows --config, falling back to the default filename.
func newConfigInitCommand() *cobra.Command {
	var (
		credentialsFile string
		defaultTrack    string
		timeout         time.Duration
	)

	command := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the given defaults.",
		Args:  noArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigFilename
			}

			settings := &config.Config{
				CredentialsFile: credentialsFile,
				DefaultTrack:    defaultTrack,
				Timeout:         timeout,
			}

			if err := config.Save(path, settings); err != nil {
				return &push.ConfigError{Reason: err.Error()}
			}

			fmt.Fprintf(c.OutOrStdout(), "Settings written to %s\n", path)

			return nil
		},
	}

	command.Flags().
		StringVarP(&credentialsFile, "credentials", "s", "", "path to the store credentials file")
	command.Flags().
		StringVarP(&defaultTrack, "default-track", "t", "", "track used when none is given on the command line")
	command.Flags().
		DurationVar(&timeout, "timeout", 0, "deadline for a whole publishing run, zero for none")

	return command
}

// noArgs rejects positional arguments with the argument-error exit status.
func noArgs(c *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &push.ConfigError{
			Reason: fmt.Sprintf("%q accepts no arguments, got %d", c.CommandPath(), len(args)),
		}
	}

	return nil
}
