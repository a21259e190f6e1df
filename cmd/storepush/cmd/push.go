package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/service/push"
)

// minimumArgs mirrors cobra.MinimumNArgs but reports a configuration error,
// so the process exits with the argument-error status code.
func minimumArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return &push.ConfigError{
				Reason: fmt.Sprintf("requires at least %d artifact(s), only received %d", n, len(args)),
			}
		}

		return nil
	}
}

// newArtifactCommand builds the `aab`/`apk` command group holding one
// subcommand per target store.
func newArtifactCommand(kind artifact.Kind, what string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Upload %s to an application store.", what),
	}

	cmd.AddCommand(newGoogleCommand(kind), newAmazonCommand(kind))

	return cmd
}

// newGoogleCommand builds the Google Play publishing subcommand.
func newGoogleCommand(kind artifact.Kind) *cobra.Command {
	var (
		credentialsFile      string
		track                string
		rolloutPercentage    int64
		commit               bool
		doNotContactServer   bool
		expectedPackageNames []string
		skipVersionCodes     bool
		skipLocales          bool
	)

	kindUpper := strings.ToUpper(string(kind))

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("google [%s-file]...", kind),
		Short: fmt.Sprintf("Upload %s files to the Google Play store.", kindUpper),
		Long: fmt.Sprintf(`Uploads %s files to the Google Play store.

Each distinct package name is published in its own edit (transaction). The
run is a dry run unless --commit is given: every edit is validated server-side
and then abandoned without going live.`, kindUpper),
		Args: minimumArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			if credentialsFile == "" {
				credentialsFile = settings.CredentialsFile
			}

			if track == "" {
				track = settings.DefaultTrack
			}

			// Absent and present are different things for the percentage,
			// so the flag only becomes a value when the user set it.
			var pct *int64
			if c.Flags().Changed("rollout-percentage") {
				pct = &rolloutPercentage
			}

			if settings.Timeout > 0 {
				var cancel context.CancelFunc

				ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
				defer cancel()
			}

			return push.Run(ctx, &push.Options{
				TargetStore:       push.StoreGoogle,
				Kind:              kind,
				ArtifactPaths:     args,
				CredentialsFile:   credentialsFile,
				Track:             track,
				RolloutPercentage: pct,
				DryRun:            !commit,
				ContactServer:     !doNotContactServer,
				Checks: artifact.Checks{
					ExpectedPackageNames: expectedPackageNames,
					SkipVersionCodeCheck: skipVersionCodes,
					SkipLocaleCheck:      skipLocales,
				},
			})
		},
	}

	// Setup command flags with consistent naming and descriptions.
	cmd.Flags().StringVarP(&credentialsFile, "credentials", "s", "",
		"path to the Google Play service account JSON file")
	cmd.Flags().StringVarP(&track, "track", "t", "",
		`track on which to upload (use "rollout" for a staged production release)`)
	cmd.Flags().Int64Var(&rolloutPercentage, "rollout-percentage", 0,
		`percentage of users who will get the update; only valid with --track=rollout`)
	cmd.Flags().BoolVar(&commit, "commit", false,
		"commit the new release on Google Play; this action cannot be reverted")
	cmd.Flags().BoolVar(&doNotContactServer, "do-not-contact-server", false,
		"prevent any request from reaching the Google Play server; useful with mock credentials")
	cmd.Flags().StringSliceVar(&expectedPackageNames, "expected-package-name", nil,
		"package name every artifact must carry (repeatable)")
	cmd.Flags().BoolVar(&skipVersionCodes, "skip-check-version-codes", false,
		"skip the distinct-version-codes consistency check")
	cmd.Flags().BoolVar(&skipLocales, "skip-check-same-locales", false,
		"skip the identical-locales consistency check")

	return cmd
}

// newAmazonCommand is the Amazon Appstore selector. The store is recognized
// but not supported yet; the orchestrator rejects it with a clear error
// before performing any work.
func newAmazonCommand(kind artifact.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("amazon [%s-file]...", kind),
		Short: fmt.Sprintf("Upload %s files to the Amazon Appstore (not supported yet).", strings.ToUpper(string(kind))),
		Args:  minimumArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return push.Run(ctx, &push.Options{
				TargetStore:   push.StoreAmazon,
				Kind:          kind,
				ArtifactPaths: args,
			})
		},
	}
}
