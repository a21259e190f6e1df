// Package googleplay publishes artifacts through the Google Play Developer
// API. A publishing run maps onto the API's "edit" concept: an edit is opened
// per package name, the artifacts are uploaded into it, the target track is
// updated, and the edit is committed — or deleted when anything fails, so a
// broken run never leaves a dangling server-side transaction.
//
// Runs with server contact disabled swap the API connection for a local one
// that fabricates edit IDs and performs no network I/O while exercising the
// exact same code path.
package googleplay
