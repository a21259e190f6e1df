// Package store defines the store-neutral contracts the publishing workflow
// is written against: an artifact paired with its metadata, the per-release
// update parameters, and the edit transaction surface each store backend
// implements.
package store
