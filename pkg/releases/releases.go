package releases

import (
	"strings"
	"unicode"
)

// VersionRecord is a single version entry as listed by the tracking API.
// Only the fields the board needs are decoded.
type VersionRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Released bool   `json:"released"`
	Archived bool   `json:"archived"`
}

// IsUnreleased reports whether the version is still pending: neither
// released nor archived.
func (v VersionRecord) IsUnreleased() bool {
	return !v.Released && !v.Archived
}

// ProjectKey is an upper-case project identifier such as "ABC".
type ProjectKey string

// String returns the key as a plain string.
func (k ProjectKey) String() string { return string(k) }

// NormalizeKey trims surrounding whitespace and upper-cases s.
func NormalizeKey(s string) ProjectKey {
	return ProjectKey(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseProjectKeys splits a configured project list on commas and whitespace,
// normalizes every entry and drops empty ones. Order of first appearance is
// kept; repeated keys (after normalization) are listed once.
func ParseProjectKeys(raw string) []ProjectKey {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	keys := make([]ProjectKey, 0, len(fields))
	seen := make(map[ProjectKey]bool, len(fields))
	for _, f := range fields {
		k := NormalizeKey(f)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// UnreleasedVersion is a pending version stripped of upstream-only fields.
type UnreleasedVersion struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// FilterUnreleased returns the unreleased, non-archived subset of records
// in their original order. Duplicates pass through unchanged.
func FilterUnreleased(records []VersionRecord) []UnreleasedVersion {
	out := make([]UnreleasedVersion, 0, len(records))
	for _, r := range records {
		if r.IsUnreleased() {
			out = append(out, UnreleasedVersion{Name: r.Name, ID: r.ID})
		}
	}
	return out
}

// ProjectReleaseSet is the list of pending versions for one project.
// Versions is never nil once produced by [Group].
type ProjectReleaseSet struct {
	Project  ProjectKey          `json:"project"`
	Versions []UnreleasedVersion `json:"versions"`
}
