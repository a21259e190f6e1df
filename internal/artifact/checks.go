package artifact

import (
	"fmt"
	"sort"
	"strings"
)

// Checks configures the cross-artifact consistency checks run after
// extraction and before any upload.
type Checks struct {
	// ExpectedPackageNames, when non-empty, must match the set of package
	// names observed across all artifacts exactly.
	ExpectedPackageNames []string
	// SkipVersionCodeCheck disables the distinct-version-codes check.
	SkipVersionCodeCheck bool
	// SkipLocaleCheck disables the identical-locales check.
	SkipLocaleCheck bool
}

// Check runs the configured consistency checks over the extracted metadata.
// The returned error, if any, is a *ValidationError.
func Check(metadata []*Metadata, checks Checks) error {
	if len(checks.ExpectedPackageNames) > 0 {
		if err := checkPackageNames(metadata, checks.ExpectedPackageNames); err != nil {
			return err
		}
	}

	if !checks.SkipVersionCodeCheck {
		if err := checkVersionCodes(metadata); err != nil {
			return err
		}
	}

	if !checks.SkipLocaleCheck {
		if err := checkLocales(metadata); err != nil {
			return err
		}
	}

	return nil
}

// checkPackageNames requires set equality between the observed and expected
// package names. A stray or missing product is a sign the wrong files were
// passed on the command line.
func checkPackageNames(metadata []*Metadata, expected []string) error {
	expectedSet := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		expectedSet[name] = struct{}{}
	}

	observedSet := make(map[string]struct{}, len(metadata))
	for _, m := range metadata {
		if _, ok := expectedSet[m.PackageName]; !ok {
			return &ValidationError{
				Reason: fmt.Sprintf("unexpected package name %q, expected one of: %s",
					m.PackageName, strings.Join(expected, ", ")),
			}
		}

		observedSet[m.PackageName] = struct{}{}
	}

	for _, name := range expected {
		if _, ok := observedSet[name]; !ok {
			return &ValidationError{
				Reason: fmt.Sprintf("no artifact provided for expected package name %q", name),
			}
		}
	}

	return nil
}

// checkVersionCodes requires distinct version codes within each package,
// since a store edit rejects duplicate codes anyway.
func checkVersionCodes(metadata []*Metadata) error {
	seen := make(map[string]map[int64]struct{})

	for _, m := range metadata {
		codes, ok := seen[m.PackageName]
		if !ok {
			codes = make(map[int64]struct{})
			seen[m.PackageName] = codes
		}

		if _, duplicate := codes[m.VersionCode]; duplicate {
			return &ValidationError{
				Reason: fmt.Sprintf("package %q has two artifacts with version code %d",
					m.PackageName, m.VersionCode),
			}
		}

		codes[m.VersionCode] = struct{}{}
	}

	return nil
}

// checkLocales requires every artifact of a package to ship the same locales,
// otherwise some users would lose translations depending on the split served.
func checkLocales(metadata []*Metadata) error {
	localesPerPackage := make(map[string]string)

	for _, m := range metadata {
		key := localesKey(m.Locales)

		previous, ok := localesPerPackage[m.PackageName]
		if !ok {
			localesPerPackage[m.PackageName] = key

			continue
		}

		if previous != key {
			return &ValidationError{
				Reason: fmt.Sprintf("artifacts of package %q ship different locale sets", m.PackageName),
			}
		}
	}

	return nil
}

// localesKey builds an order-insensitive fingerprint of a locale set.
func localesKey(locales []string) string {
	sorted := append([]string(nil), locales...)
	sort.Strings(sorted)

	return strings.Join(sorted, "\x00")
}
