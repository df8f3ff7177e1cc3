// Package render turns the normalized release board into a response body.
//
// # Formats
//
// Three formats are supported, selected with [ParseFormat]:
//
//   - [FormatHTML]: a self-contained page with a project table, variant
//     links, a force-refresh link and a client-side theme toggle
//   - [FormatMarkdown]: a heading, a two-column table and a footer with
//     absolute links to every variant ("md" is accepted as an alias)
//   - [FormatJSON]: a [Document] with a meta section and one entry per project
//
// Unknown or empty format values fall back to HTML.
//
// # Links
//
// A [Context] carries everything besides the data: the generation time,
// the request origin used for variant links, and the Jira site used for
// project and version links. Identifiers are path-escaped and all text is
// escaped for the target format, so upstream names cannot inject markup.
//
//	rc := render.NewContext(r, "acme.atlassian.net", "My Active Jira Releases", time.Now())
//	res, err := render.Render(render.ParseFormat(r.URL.Query().Get("format")), projects, rc)
//	w.Header().Set("Content-Type", res.ContentType)
//	w.Write(res.Body)
package render
