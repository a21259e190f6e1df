package artifact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCheck_PackageNames verifies set equality between observed and expected names.
func TestCheck_PackageNames(t *testing.T) {
	t.Parallel()

	metadata := []*Metadata{
		{PackageName: "com.app.a", VersionCode: 1},
		{PackageName: "com.app.b", VersionCode: 2},
	}

	// Exact match.
	err := Check(metadata, Checks{ExpectedPackageNames: []string{"com.app.a", "com.app.b"}})
	require.NoError(t, err)

	// Unexpected package.
	err = Check(metadata, Checks{ExpectedPackageNames: []string{"com.app.a"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "com.app.b")

	// Missing package.
	err = Check(metadata, Checks{ExpectedPackageNames: []string{"com.app.a", "com.app.b", "com.app.c"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "com.app.c")

	// Empty expectation disables the check.
	require.NoError(t, Check(metadata, Checks{}))
}

// TestCheck_VersionCodes rejects duplicate version codes within one package
// while allowing the same code across distinct packages.
func TestCheck_VersionCodes(t *testing.T) {
	t.Parallel()

	var validationErr *ValidationError

	err := Check([]*Metadata{
		{PackageName: "com.app.a", VersionCode: 5},
		{PackageName: "com.app.a", VersionCode: 5},
	}, Checks{})
	require.ErrorAs(t, err, &validationErr)

	err = Check([]*Metadata{
		{PackageName: "com.app.a", VersionCode: 5},
		{PackageName: "com.app.b", VersionCode: 5},
	}, Checks{})
	require.NoError(t, err)

	// Skippable.
	err = Check([]*Metadata{
		{PackageName: "com.app.a", VersionCode: 5},
		{PackageName: "com.app.a", VersionCode: 5},
	}, Checks{SkipVersionCodeCheck: true})
	require.NoError(t, err)
}

// TestCheck_Locales requires identical locale sets per package, order-insensitively.
func TestCheck_Locales(t *testing.T) {
	t.Parallel()

	err := Check([]*Metadata{
		{PackageName: "com.app.a", VersionCode: 1, Locales: []string{"en-US", "de"}},
		{PackageName: "com.app.a", VersionCode: 2, Locales: []string{"de", "en-US"}},
	}, Checks{})
	require.NoError(t, err)

	mismatched := []*Metadata{
		{PackageName: "com.app.a", VersionCode: 1, Locales: []string{"en-US", "de"}},
		{PackageName: "com.app.a", VersionCode: 2, Locales: []string{"en-US"}},
	}

	var validationErr *ValidationError

	err = Check(mismatched, Checks{})
	require.ErrorAs(t, err, &validationErr)

	// Skippable.
	require.NoError(t, Check(mismatched, Checks{SkipLocaleCheck: true}))
}
