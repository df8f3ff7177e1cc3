// Package jira lists project versions from the Jira Cloud REST API.
//
// # Usage
//
//	c := jira.NewClient("acme.atlassian.net", email, token)
//	versions, err := c.FetchUnreleasedVersions(ctx, "ABC")
//
// [Client.FetchUnreleasedVersions] walks every page of
// /rest/api/3/project/{key}/version, following nextPage links until the
// listing ends, and keeps only versions that are neither released nor
// archived.
//
// # Failure handling
//
// A non-2xx answer for a page is logged as a warning and ends pagination
// for that project; versions collected from earlier pages are returned
// without an error. Transport failures and undecodable pages are returned
// as errors.
package jira
