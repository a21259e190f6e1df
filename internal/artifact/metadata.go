package artifact

import (
	"archive/zip"
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the supported Android binary containers.
type Kind string

const (
	// KindAAB is an Android App Bundle.
	KindAAB Kind = "aab"
	// KindAPK is an Android application package.
	KindAPK Kind = "apk"
)

// Metadata holds the attributes extracted from a single binary.
// It is produced once per artifact and treated as read-only afterwards.
type Metadata struct {
	// PackageName is the application identity key, e.g. "org.mozilla.firefox".
	PackageName string
	// VersionCode is the monotonically increasing build number within a package.
	VersionCode int64
	// VersionName is the human-readable version string, when present.
	VersionName string
	// Architecture lists the native ABIs bundled in the artifact,
	// joined with "+" ("universal" when the artifact ships no native code).
	Architecture string
	// Locales are the translation locales bundled in the artifact, when known.
	Locales []string
	// BuildID is an optional application-supplied build identifier
	// (read from manifest meta-data when present).
	BuildID string
	// APILevel is the minimum Android SDK level, when declared.
	APILevel int32
}

// ValidationError reports that a binary failed metadata extraction or one of
// the pre-upload consistency checks.
type ValidationError struct {
	// Path is the offending artifact, empty for cross-artifact checks.
	Path string
	// Reason describes what exactly was wrong.
	Reason string
	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}

	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes the underlying parse error for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Extract reads the binary at path and returns its metadata.
// The container layout is dictated by kind, not guessed from the file name.
func Extract(kind Kind, path string) (*Metadata, error) {
	switch kind {
	case KindAAB:
		return extractAAB(path)
	case KindAPK:
		return extractAPK(path)
	default:
		return nil, &ValidationError{Path: path, Reason: fmt.Sprintf("unknown artifact kind %q", kind)}
	}
}

// universalArchitecture marks artifacts shipping no native libraries.
const universalArchitecture = "universal"

// nativeArchitectures lists the distinct ABI directories found under the
// given native-library prefix ("lib/" for APKs, "base/lib/" for bundles).
func nativeArchitectures(reader *zip.Reader, prefix string) string {
	seen := make(map[string]struct{})

	for _, file := range reader.File {
		rest, ok := strings.CutPrefix(file.Name, prefix)
		if !ok {
			continue
		}

		abi, _, ok := strings.Cut(rest, "/")
		if !ok || abi == "" {
			continue
		}

		seen[abi] = struct{}{}
	}

	if len(seen) == 0 {
		return universalArchitecture
	}

	abis := make([]string, 0, len(seen))
	for abi := range seen {
		abis = append(abis, abi)
	}

	sort.Strings(abis)

	return strings.Join(abis, "+")
}
