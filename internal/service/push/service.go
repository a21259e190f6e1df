package push

import (
	"context"
	"fmt"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/logger"
	"github.com/storepush/storepush/internal/store"
	"github.com/storepush/storepush/internal/store/googleplay"
)

// ConfigError reports an invalid request: bad flag values or illegal
// parameter combinations. It is always raised before any I/O happens and the
// CLI maps it to exit code 2.
type ConfigError struct {
	// Reason is the human-readable description shown to the user.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.Reason
}

// configErrorf builds a ConfigError with a formatted reason.
func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// run is the workflow body with its collaborators injected for testing.
func run(ctx context.Context, opts *Options, extract extractFunc, open storeOpener) error {
	if err := validate(opts); err != nil {
		return err
	}

	artifacts, err := extractAll(ctx, opts, extract)
	if err != nil {
		return err
	}

	groups := groupByPackageName(artifacts)

	logger.InfoKV(ctx, "Grouped artifacts by package name",
		"artifacts", len(artifacts), "packages", len(groups))

	st, err := open(ctx, opts)
	if err != nil {
		return fmt.Errorf("open %s store: %w", opts.TargetStore, err)
	}

	params := store.UpdateParams{
		Track:             opts.Track,
		RolloutPercentage: opts.RolloutPercentage,
	}

	// One transaction per package, strictly sequential. The store keys edit
	// state by package name and forbids concurrent edits on the same package.
	for _, group := range groups {
		err = st.WithTransaction(ctx, group.PackageName,
			func(ctx context.Context, edit store.Edit) error {
				return edit.UpdateApp(ctx, group.Artifacts, params)
			})
		if err != nil {
			return fmt.Errorf("publish %s: %w", group.PackageName, err)
		}
	}

	return nil
}

// validate rejects illegal requests before any file or network I/O.
func validate(opts *Options) error {
	switch opts.TargetStore {
	case StoreGoogle:
	case StoreAmazon:
		return configErrorf("the %s store is not supported yet, only %s is", StoreAmazon, StoreGoogle)
	default:
		return configErrorf("unknown target store %q", opts.TargetStore)
	}

	if len(opts.ArtifactPaths) == 0 {
		return configErrorf("at least one artifact must be provided")
	}

	// The store allows multiple release tracks per app, so the request must
	// disambiguate which one to publish to.
	if opts.Track == "" {
		return configErrorf("the %s store requires a track", StoreGoogle)
	}

	pct := opts.RolloutPercentage

	if opts.Track == googleplay.RolloutTrack && pct == nil {
		return configErrorf("track %q requires a rollout percentage", googleplay.RolloutTrack)
	}

	if opts.Track != googleplay.RolloutTrack && pct != nil {
		return configErrorf("a rollout percentage is only valid on track %q, not %q",
			googleplay.RolloutTrack, opts.Track)
	}

	if pct != nil && (*pct <= 0 || *pct > 100) {
		return configErrorf("rollout percentage must be in (0, 100], got %d", *pct)
	}

	if opts.ContactServer && opts.CredentialsFile == "" {
		return configErrorf("a credentials file must be provided to contact the %s store", opts.TargetStore)
	}

	return nil
}

// extractAll extracts metadata for every artifact and runs the consistency
// checks. Any failure preempts all uploads.
func extractAll(ctx context.Context, opts *Options, extract extractFunc) ([]store.Artifact, error) {
	artifacts := make([]store.Artifact, 0, len(opts.ArtifactPaths))
	metadata := make([]*artifact.Metadata, 0, len(opts.ArtifactPaths))

	for _, path := range opts.ArtifactPaths {
		meta, err := extract(opts.Kind, path)
		if err != nil {
			return nil, fmt.Errorf("extract metadata from %s: %w", path, err)
		}

		logger.DebugKV(ctx, "Extracted artifact metadata",
			"path", path,
			"package_name", meta.PackageName,
			"version_code", meta.VersionCode,
			"architecture", meta.Architecture)

		artifacts = append(artifacts, store.Artifact{Path: path, Kind: opts.Kind, Metadata: meta})
		metadata = append(metadata, meta)
	}

	if err := artifact.Check(metadata, opts.Checks); err != nil {
		return nil, err
	}

	return artifacts, nil
}
