// Package push implements the publishing workflow: validate the request,
// extract and check metadata for every artifact, group the artifacts by
// package name, then drive one store transaction per package, sequentially,
// halting the whole run on the first failure.
//
// Extraction failures are fatal before any transaction opens: grouping needs
// complete metadata for all artifacts, and a partial upload across packages
// is considered worse than an explicit abort.
package push
