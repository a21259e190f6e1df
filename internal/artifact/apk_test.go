package artifact

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeAPK creates an .apk file on disk with the given zip entries.
func writeAPK(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.apk")

	file, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(file)

	for name, contents := range entries {
		entry, createErr := writer.Create(name)
		require.NoError(t, createErr)

		_, err = entry.Write(contents)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())

	return path
}

// TestExtractAPK_Invalid rejects containers that are not parseable APKs.
func TestExtractAPK_Invalid(t *testing.T) {
	t.Parallel()

	var validationErr *ValidationError

	// Not a zip at all.
	garbage := filepath.Join(t.TempDir(), "garbage.apk")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip"), 0o600))

	_, err := Extract(KindAPK, garbage)
	require.ErrorAs(t, err, &validationErr)

	// Zip without a binary manifest.
	_, err = Extract(KindAPK, writeAPK(t, map[string][]byte{
		"classes.dex": nil,
	}))
	require.ErrorAs(t, err, &validationErr)

	// Manifest entry that is not Android binary XML.
	_, err = Extract(KindAPK, writeAPK(t, map[string][]byte{
		"AndroidManifest.xml": []byte(`<manifest package="com.app.a"/>`),
	}))
	require.ErrorAs(t, err, &validationErr)

	// A missing file is a validation error too, not a bare os error.
	_, err = Extract(KindAPK, filepath.Join(t.TempDir(), "absent.apk"))
	require.ErrorAs(t, err, &validationErr)
}
