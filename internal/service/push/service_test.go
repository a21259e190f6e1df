package push

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/store"
)

var (
	errTestExtract = errors.New("test extract error")
	errTestUpdate  = errors.New("test update error")
)

// recordedUpdate is one UpdateApp invocation observed by the fake store.
type recordedUpdate struct {
	packageName string
	artifacts   []store.Artifact
	params      store.UpdateParams
}

// fakeStore records transactions and updates, optionally failing a package.
type fakeStore struct {
	// opened lists package names in transaction order.
	opened []string
	// updates lists every UpdateApp call.
	updates []recordedUpdate
	// failPackage makes the update of that package fail.
	failPackage string
}

// fakeEdit forwards UpdateApp calls back to the owning fakeStore.
type fakeEdit struct {
	owner       *fakeStore
	packageName string
}

func (e *fakeEdit) UpdateApp(_ context.Context, artifacts []store.Artifact, params store.UpdateParams) error {
	if e.packageName == e.owner.failPackage {
		return errTestUpdate
	}

	e.owner.updates = append(e.owner.updates, recordedUpdate{
		packageName: e.packageName,
		artifacts:   artifacts,
		params:      params,
	})

	return nil
}

func (s *fakeStore) WithTransaction(
	ctx context.Context,
	packageName string,
	fn func(ctx context.Context, edit store.Edit) error,
) error {
	s.opened = append(s.opened, packageName)

	return fn(ctx, &fakeEdit{owner: s, packageName: packageName})
}

// fakeExtractor serves canned metadata per path and counts invocations.
type fakeExtractor struct {
	metadata map[string]*artifact.Metadata
	failPath string
	calls    int
}

func (f *fakeExtractor) extract(_ artifact.Kind, path string) (*artifact.Metadata, error) {
	f.calls++

	if path == f.failPath {
		return nil, &artifact.ValidationError{Path: path, Reason: "broken artifact", Err: errTestExtract}
	}

	return f.metadata[path], nil
}

// testOptions builds a valid baseline request for the fake store.
func testOptions(paths ...string) *Options {
	return &Options{
		TargetStore:   StoreGoogle,
		Kind:          artifact.KindAAB,
		ArtifactPaths: paths,
		Track:         "beta",
		DryRun:        true,
		ContactServer: false,
	}
}

// runWithFakes wires the fakes through the injected collaborators.
func runWithFakes(t *testing.T, opts *Options, extractor *fakeExtractor, st *fakeStore) error {
	t.Helper()

	return run(context.Background(), opts, extractor.extract,
		func(context.Context, *Options) (store.Store, error) {
			return st, nil
		})
}

// TestRun_GroupsIntoOneTransactionPerPackage publishes two packages: the
// first transaction receives both of its binaries in original order, the
// second exactly one.
func TestRun_GroupsIntoOneTransactionPerPackage(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{metadata: map[string]*artifact.Metadata{
		"a-arm.aab": {PackageName: "com.app.a", VersionCode: 1},
		"a-x86.aab": {PackageName: "com.app.a", VersionCode: 2},
		"b.aab":     {PackageName: "com.app.b", VersionCode: 7},
	}}
	st := new(fakeStore)

	err := runWithFakes(t, testOptions("a-arm.aab", "a-x86.aab", "b.aab"), extractor, st)
	require.NoError(t, err)

	require.Equal(t, []string{"com.app.a", "com.app.b"}, st.opened)
	require.Len(t, st.updates, 2)

	first := st.updates[0]
	require.Equal(t, "com.app.a", first.packageName)
	require.Len(t, first.artifacts, 2)
	require.Equal(t, "a-arm.aab", first.artifacts[0].Path)
	require.Equal(t, "a-x86.aab", first.artifacts[1].Path)

	second := st.updates[1]
	require.Equal(t, "com.app.b", second.packageName)
	require.Len(t, second.artifacts, 1)
	require.Equal(t, "b.aab", second.artifacts[0].Path)
}

// TestRun_RolloutParamsReachTheEdit publishes one package on the rollout
// track and expects exactly one update carrying the percentage.
func TestRun_RolloutParamsReachTheEdit(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{metadata: map[string]*artifact.Metadata{
		"a.aab": {PackageName: "com.app.a", VersionCode: 1},
	}}
	st := new(fakeStore)

	pct := int64(50)
	opts := testOptions("a.aab")
	opts.Track = "rollout"
	opts.RolloutPercentage = &pct

	require.NoError(t, runWithFakes(t, opts, extractor, st))

	require.Len(t, st.updates, 1)
	require.Equal(t, "rollout", st.updates[0].params.Track)
	require.NotNil(t, st.updates[0].params.RolloutPercentage)
	require.Equal(t, int64(50), *st.updates[0].params.RolloutPercentage)
}

// TestRun_ConfigErrorsPreemptAllWork asserts invalid requests fail before
// the extractor runs or any transaction opens.
func TestRun_ConfigErrorsPreemptAllWork(t *testing.T) {
	t.Parallel()

	pctZero, pctBig, pctOK := int64(0), int64(101), int64(10)

	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"unknown store", func(o *Options) { o.TargetStore = "itunes" }},
		{"amazon not supported", func(o *Options) { o.TargetStore = StoreAmazon }},
		{"no artifacts", func(o *Options) { o.ArtifactPaths = nil }},
		{"missing track", func(o *Options) { o.Track = "" }},
		{"rollout without percentage", func(o *Options) { o.Track = "rollout" }},
		{"percentage without rollout", func(o *Options) { o.RolloutPercentage = &pctOK }},
		{"percentage zero", func(o *Options) { o.Track = "rollout"; o.RolloutPercentage = &pctZero }},
		{"percentage above hundred", func(o *Options) { o.Track = "rollout"; o.RolloutPercentage = &pctBig }},
		{"contact without credentials", func(o *Options) { o.ContactServer = true }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			extractor := &fakeExtractor{metadata: map[string]*artifact.Metadata{
				"a.aab": {PackageName: "com.app.a", VersionCode: 1},
			}}
			st := new(fakeStore)

			opts := testOptions("a.aab")
			tc.mutate(opts)

			err := runWithFakes(t, opts, extractor, st)

			var configErr *ConfigError

			require.ErrorAs(t, err, &configErr)
			require.Zero(t, extractor.calls)
			require.Empty(t, st.opened)
		})
	}
}

// TestRun_ExtractionFailurePreemptsAllTransactions fails one of three
// binaries and expects zero transactions for any package.
func TestRun_ExtractionFailurePreemptsAllTransactions(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{
		metadata: map[string]*artifact.Metadata{
			"a.aab": {PackageName: "com.app.a", VersionCode: 1},
			"b.aab": {PackageName: "com.app.b", VersionCode: 2},
		},
		failPath: "broken.aab",
	}
	st := new(fakeStore)

	err := runWithFakes(t, testOptions("a.aab", "broken.aab", "b.aab"), extractor, st)

	var validationErr *artifact.ValidationError

	require.ErrorAs(t, err, &validationErr)
	require.Empty(t, st.opened)
}

// TestRun_CheckFailurePreemptsAllTransactions trips the package name check.
func TestRun_CheckFailurePreemptsAllTransactions(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{metadata: map[string]*artifact.Metadata{
		"a.aab": {PackageName: "com.app.a", VersionCode: 1},
	}}
	st := new(fakeStore)

	opts := testOptions("a.aab")
	opts.Checks.ExpectedPackageNames = []string{"com.app.b"}

	err := runWithFakes(t, opts, extractor, st)

	var validationErr *artifact.ValidationError

	require.ErrorAs(t, err, &validationErr)
	require.Empty(t, st.opened)
}

// TestRun_FirstTransactionFailureHaltsTheRun fails the first package and
// expects the second to stay untouched.
func TestRun_FirstTransactionFailureHaltsTheRun(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{metadata: map[string]*artifact.Metadata{
		"a.aab": {PackageName: "com.app.a", VersionCode: 1},
		"b.aab": {PackageName: "com.app.b", VersionCode: 2},
	}}
	st := &fakeStore{failPackage: "com.app.a"}

	err := runWithFakes(t, testOptions("a.aab", "b.aab"), extractor, st)

	require.ErrorIs(t, err, errTestUpdate)
	require.Equal(t, []string{"com.app.a"}, st.opened)
	require.Empty(t, st.updates)
}
