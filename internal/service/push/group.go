package push

import "github.com/storepush/storepush/internal/store"

// PackageGroup is the ordered set of artifacts sharing one package name.
// Every group maps onto exactly one store transaction.
type PackageGroup struct {
	// PackageName is the identity key shared by all artifacts in the group.
	PackageName string
	// Artifacts keeps the original input order.
	Artifacts []store.Artifact
}

// groupByPackageName stable-partitions artifacts by package name: keys appear
// in first-seen order, each group keeps the original relative order, and no
// artifact is dropped or duplicated.
func groupByPackageName(artifacts []store.Artifact) []PackageGroup {
	index := make(map[string]int, len(artifacts))
	groups := make([]PackageGroup, 0, len(artifacts))

	for _, art := range artifacts {
		name := art.Metadata.PackageName

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i

			groups = append(groups, PackageGroup{PackageName: name})
		}

		groups[i].Artifacts = append(groups[i].Artifacts, art)
	}

	return groups
}
