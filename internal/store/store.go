package store

import (
	"context"

	"github.com/storepush/storepush/internal/artifact"
)

// Artifact is one uploadable binary together with its extracted metadata.
// Both fields are read-only once extraction has run.
type Artifact struct {
	// Path is the location of the binary on disk.
	Path string
	// Kind tells the backend which upload endpoint to use.
	Kind artifact.Kind
	// Metadata is the result of extracting the binary at Path.
	Metadata *artifact.Metadata
}

// UpdateParams carries the release parameters applied inside one edit.
type UpdateParams struct {
	// Track is the release channel to publish to.
	Track string
	// RolloutPercentage is the staged rollout share in (0, 100].
	// A nil pointer means no staged rollout was requested.
	RolloutPercentage *int64
}

// Edit is the mutation surface of one open store transaction.
// An Edit never outlives the WithTransaction call that produced it.
type Edit interface {
	// UpdateApp uploads the given artifacts and assigns them to the
	// requested track. All artifacts must share the edit's package name.
	UpdateApp(ctx context.Context, artifacts []Artifact, params UpdateParams) error
}

// Store drives edit transactions against a single application store.
type Store interface {
	// WithTransaction opens an edit scoped to exactly one package name,
	// runs fn against it and guarantees the edit is committed or abandoned
	// on every exit path, including fn failures.
	WithTransaction(ctx context.Context, packageName string, fn func(ctx context.Context, edit Edit) error) error
}
