package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/config"
	"github.com/storepush/storepush/internal/logger"
	"github.com/storepush/storepush/internal/service/push"
	"github.com/storepush/storepush/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel selects the minimum level for console output.
	logLevel string

	// rootCmd represents the base command for publishing artifacts.
	rootCmd = &cobra.Command{
		Use:   "storepush",
		Short: "Upload mobile application binaries to app store publishing APIs.",
		Long: `storepush uploads AAB and APK binaries to an application store.

Binaries are grouped by package name and each package is published inside its
own store edit (transaction), committed atomically or abandoned on failure.
Runs are dry by default; pass --commit to make releases live.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return &push.ConfigError{Reason: fmt.Sprintf("unknown log level %q", logLevel)}
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the storepush CLI. Configuration and argument errors exit
// with status 2, everything else with status 1.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Unknown subcommands are argument errors, same exit code as flag and
	// validation failures. Cobra reports them untyped, so resolve up front.
	// The built-in help and completion commands must exist before resolving.
	rootCmd.InitDefaultHelpCmd()
	rootCmd.InitDefaultCompletionCmd()

	if _, _, err := rootCmd.Find(os.Args[1:]); err != nil {
		rootCmd.PrintErrln("Error:", err.Error())
		os.Exit(exitCode(&push.ConfigError{Reason: err.Error()}))
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var configErr *push.ConfigError
	if errors.As(err, &configErr) {
		return 2
	}

	return 1
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Flag parse failures are argument errors, same exit code as validation.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &push.ConfigError{Reason: err.Error()}
	})

	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newArtifactCommand(artifact.KindAAB, "Android App Bundles"),
		newArtifactCommand(artifact.KindAPK, "Android application packages"),
		newConfigCommand(),
	)
}

// loadSettings reads the optional configuration file. An explicitly given
// path must exist; the default path is used only when present.
func loadSettings() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	if _, err := os.Stat(config.DefaultConfigFilename); err != nil {
		return new(config.Config), nil //nolint:nilerr // Missing default settings are fine.
	}

	return config.Load(config.DefaultConfigFilename)
}
