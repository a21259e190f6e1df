// Package artifact inspects Android binaries (APK and AAB containers) and
// extracts the metadata the publishing workflow relies on: package name,
// version code, native architectures.
//
// It also hosts the cross-artifact consistency checks that must all pass
// before a single byte is uploaded to a store.
package artifact
