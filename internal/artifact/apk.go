package artifact

import (
	"archive/zip"
	"strings"

	"github.com/shogo82148/androidbinary/apk"
)

// apkNativeLibraryPrefix is where APKs keep per-ABI shared objects.
const apkNativeLibraryPrefix = "lib/"

// extractAPK parses the binary AndroidManifest.xml of an APK container.
func extractAPK(path string) (*Metadata, error) {
	pkg, err := apk.OpenFile(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "not a readable APK", Err: err}
	}
	defer pkg.Close()

	manifest := pkg.Manifest()

	packageName, err := manifest.Package.String()
	if err != nil || packageName == "" {
		return nil, &ValidationError{Path: path, Reason: "manifest has no package name", Err: err}
	}

	versionCode, err := manifest.VersionCode.Int32()
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "manifest has no version code", Err: err}
	}

	metadata := &Metadata{
		PackageName: packageName,
		VersionCode: int64(versionCode),
	}

	// Optional attributes, absence is not an error.
	if versionName, nameErr := manifest.VersionName.String(); nameErr == nil {
		metadata.VersionName = versionName
	}

	if minSDK, sdkErr := manifest.SDK.Min.Int32(); sdkErr == nil {
		metadata.APILevel = minSDK
	}

	metadata.BuildID = buildIDFromMetaData(pkg)

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: "not a zip container", Err: err}
	}
	defer reader.Close()

	metadata.Architecture = nativeArchitectures(&reader.Reader, apkNativeLibraryPrefix)

	return metadata, nil
}

// buildIDFromMetaData looks for an application-level build identifier.
func buildIDFromMetaData(pkg *apk.Apk) string {
	for _, entry := range pkg.Manifest().App.MetaData {
		name, err := entry.Name.String()
		if err != nil {
			continue
		}

		switch strings.ToLower(name) {
		case "buildid", "build_id":
			if value, err := entry.Value.String(); err == nil {
				return value
			}
		}
	}

	return ""
}
