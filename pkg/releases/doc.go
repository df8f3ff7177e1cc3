// Package releases holds the release-board data model and the pure
// transformations applied to it between fetching and rendering.
//
// # Data Flow
//
// Raw [VersionRecord] values arrive from the tracking API one page at a time.
// [FilterUnreleased] keeps only versions that are neither released nor
// archived, [Group] assigns them to the configured [ProjectKey] set (every
// configured key gets an entry, even an empty one), and [Normalize] produces
// the canonical ordering consumed by every renderer:
//
//	keys := releases.ParseProjectKeys("abc, xyz")
//	grouped := releases.Group(keys, fetched)
//	board := releases.Normalize(grouped)
//
// Projects are ordered by key using plain string comparison (keys are already
// upper-case). Versions within a project are ordered by name using a
// locale-aware collator, so "alpha" sorts before "Beta".
package releases
