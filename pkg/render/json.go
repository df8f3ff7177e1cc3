package render

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/matzehuels/releaseboard/pkg/releases"
)

// Document is the JSON representation of the board.
type Document struct {
	Meta     Meta           `json:"meta"`
	Projects []ProjectEntry `json:"projects"`
}

// Meta describes when and where the document was produced.
type Meta struct {
	GeneratedAt string `json:"generatedAt"`
	Title       string `json:"title"`
	Links       Links  `json:"links"`
}

// Links points at every format variant.
type Links struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
	JSON     string `json:"json"`
}

// ProjectEntry is one project and its pending releases.
type ProjectEntry struct {
	Project    string    `json:"project"`
	ProjectURL string    `json:"projectUrl"`
	Releases   []Release `json:"releases"`
}

// Release is one unreleased version.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

// BuildDocument converts normalized projects into a Document.
// Projects and Releases are never nil, so they encode as [] when empty.
func BuildDocument(projects []releases.ProjectReleaseSet, rc Context) Document {
	doc := Document{
		Meta: Meta{
			GeneratedAt: rc.GeneratedAt.UTC().Format(time.RFC3339),
			Title:       rc.Title,
			Links: Links{
				HTML:     rc.FormatURL(FormatHTML),
				Markdown: rc.FormatURL(FormatMarkdown),
				JSON:     rc.FormatURL(FormatJSON),
			},
		},
		Projects: make([]ProjectEntry, 0, len(projects)),
	}
	for _, p := range projects {
		entry := ProjectEntry{
			Project:    p.Project.String(),
			ProjectURL: rc.ProjectURL(p.Project),
			Releases:   make([]Release, 0, len(p.Versions)),
		}
		for _, v := range p.Versions {
			entry.Releases = append(entry.Releases, Release{Version: v.Name, URL: rc.VersionURL(p.Project, v.ID)})
		}
		doc.Projects = append(doc.Projects, entry)
	}
	return doc
}

// RenderJSON encodes the board as indented JSON.
func RenderJSON(projects []releases.ProjectReleaseSet, rc Context) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildDocument(projects, rc)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
