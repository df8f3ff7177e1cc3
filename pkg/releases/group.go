package releases

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Group assigns fetched versions to the configured project keys.
//
// Every key in keys gets exactly one entry. Keys with no fetched data (or a
// failed fetch) get an empty, non-nil version list. Fetched entries for keys
// that are not configured are ignored. Version slices are copied so the
// result can be sorted without touching fetched.
func Group(keys []ProjectKey, fetched map[ProjectKey][]UnreleasedVersion) map[ProjectKey]ProjectReleaseSet {
	grouped := make(map[ProjectKey]ProjectReleaseSet, len(keys))
	for _, k := range keys {
		versions := make([]UnreleasedVersion, 0, len(fetched[k]))
		versions = append(versions, fetched[k]...)
		grouped[k] = ProjectReleaseSet{Project: k, Versions: versions}
	}
	return grouped
}

// Normalize orders grouped release sets deterministically: projects by key
// ascending, versions within each project by name using a locale-aware
// collator. Applying Normalize to its own output yields the same order.
func Normalize(grouped map[ProjectKey]ProjectReleaseSet) []ProjectReleaseSet {
	keys := make([]ProjectKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	// Collators are not safe for concurrent use; one per call.
	col := collate.New(language.Und)

	board := make([]ProjectReleaseSet, 0, len(keys))
	for _, k := range keys {
		set := grouped[k]
		if set.Versions == nil {
			set.Versions = []UnreleasedVersion{}
		}
		SortVersions(col, set.Versions)
		board = append(board, set)
	}
	return board
}

// SortVersions sorts versions in place by name. Names the collator considers
// equal fall back to byte order and then to ID so the result is total.
func SortVersions(col *collate.Collator, versions []UnreleasedVersion) {
	if col == nil {
		col = collate.New(language.Und)
	}
	slices.SortStableFunc(versions, func(a, b UnreleasedVersion) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
