package push

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storepush/storepush/internal/artifact"
	"github.com/storepush/storepush/internal/store"
)

// groupInput builds an artifact for grouping tests.
func groupInput(path, packageName string, versionCode int64) store.Artifact {
	return store.Artifact{
		Path: path,
		Kind: artifact.KindAAB,
		Metadata: &artifact.Metadata{
			PackageName: packageName,
			VersionCode: versionCode,
		},
	}
}

// flatten concatenates the groups back into one sequence.
func flatten(groups []PackageGroup) []store.Artifact {
	var out []store.Artifact
	for _, g := range groups {
		out = append(out, g.Artifacts...)
	}

	return out
}

// TestGroupByPackageName_StablePartition checks key order, in-group order and
// the exact multiset property: the union of all groups equals the input.
func TestGroupByPackageName_StablePartition(t *testing.T) {
	t.Parallel()

	input := []store.Artifact{
		groupInput("a-arm.aab", "com.app.a", 1),
		groupInput("b.aab", "com.app.b", 10),
		groupInput("a-x86.aab", "com.app.a", 2),
		groupInput("c.aab", "com.app.c", 5),
		groupInput("b2.aab", "com.app.b", 11),
	}

	groups := groupByPackageName(input)

	// First-seen key order.
	require.Len(t, groups, 3)
	require.Equal(t, "com.app.a", groups[0].PackageName)
	require.Equal(t, "com.app.b", groups[1].PackageName)
	require.Equal(t, "com.app.c", groups[2].PackageName)

	// Original relative order within each group.
	require.Equal(t, []store.Artifact{input[0], input[2]}, groups[0].Artifacts)
	require.Equal(t, []store.Artifact{input[1], input[4]}, groups[1].Artifacts)
	require.Equal(t, []store.Artifact{input[3]}, groups[2].Artifacts)

	// Every artifact lands in the group carrying its own package name.
	for _, group := range groups {
		for _, art := range group.Artifacts {
			require.Equal(t, group.PackageName, art.Metadata.PackageName)
		}
	}

	// No artifact dropped or duplicated.
	counts := make(map[string]int)
	for _, art := range input {
		counts[art.Path]++
	}

	for _, art := range flatten(groups) {
		counts[art.Path]--
	}

	for path, count := range counts {
		require.Zerof(t, count, "artifact %s dropped or duplicated", path)
	}
}

// TestGroupByPackageName_Idempotent re-groups a flattened grouping and
// expects the identical result.
func TestGroupByPackageName_Idempotent(t *testing.T) {
	t.Parallel()

	input := []store.Artifact{
		groupInput("a1.aab", "com.app.a", 1),
		groupInput("b1.aab", "com.app.b", 1),
		groupInput("a2.aab", "com.app.a", 2),
	}

	once := groupByPackageName(input)
	twice := groupByPackageName(flatten(once))

	require.Equal(t, once, twice)
}

// TestGroupByPackageName_Empty yields an empty grouping for empty input.
func TestGroupByPackageName_Empty(t *testing.T) {
	t.Parallel()

	require.Empty(t, groupByPackageName(nil))
}
