package push

import (
	"context"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/logger"
	"github.com/storepush/storepush/internal/store"
	"github.com/storepush/storepush/internal/store/googleplay"
)

// TargetStore identifies an application store the tool knows about.
type TargetStore string

const (
	// StoreGoogle is the Google Play store.
	StoreGoogle TargetStore = "google"
	// StoreAmazon is the Amazon Appstore. Recognized but not supported yet;
	// selecting it fails clearly instead of being silently ignored.
	StoreAmazon TargetStore = "amazon"
)

// Options contains inputs for the publishing entry point.
type Options struct {
	// TargetStore selects the store backend.
	TargetStore TargetStore
	// Kind tells extraction and upload how to treat the artifacts.
	Kind artifact.Kind
	// ArtifactPaths are the binaries to publish, in command line order.
	ArtifactPaths []string
	// CredentialsFile locates the store credentials
	// (service account JSON for Google Play).
	CredentialsFile string
	// Track is the release channel to publish to.
	Track string
	// RolloutPercentage is the staged rollout share in (0, 100],
	// required when Track is "rollout" and forbidden otherwise.
	RolloutPercentage *int64
	// DryRun validates everything server-side but never commits an edit.
	DryRun bool
	// ContactServer false replaces the store connection with a local one,
	// useful for validation runs with mock credentials.
	ContactServer bool
	// Checks configures the pre-upload consistency checks.
	Checks artifact.Checks
}

// Run executes the publishing workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "storepush")

	return run(ctx, opts, artifact.Extract, openStore)
}

type (
	// extractFunc matches artifact.Extract; injected so tests can observe calls.
	extractFunc func(kind artifact.Kind, path string) (*artifact.Metadata, error)

	// storeOpener builds the store backend for a validated request.
	storeOpener func(ctx context.Context, opts *Options) (store.Store, error)
)

// openStore builds the backend for the requested store.
// validate has already rejected every store but Google.
func openStore(ctx context.Context, opts *Options) (store.Store, error) {
	return googleplay.NewStore(ctx, opts.CredentialsFile, opts.ContactServer, opts.DryRun)
}
