package jira

import "github.com/matzehuels/releaseboard/pkg/releases"

// versionPage is one page of the project version listing.
type versionPage struct {
	Values   []releases.VersionRecord `json:"values"`
	NextPage string                   `json:"nextPage"`
	IsLast   bool                     `json:"isLast"`
}
