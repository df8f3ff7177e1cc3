package render

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/matzehuels/releaseboard/pkg/releases"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

type htmlPage struct {
	Title       string
	Projects    []htmlProject
	Updated     string
	ForceURL    string
	MarkdownURL string
	JSONURL     string
}

type htmlProject struct {
	Key      string
	URL      string
	Versions []htmlLink
}

type htmlLink struct {
	Name string
	URL  string
}

// RenderHTML renders the interactive page. Every interpolated value is
// escaped by html/template.
func RenderHTML(projects []releases.ProjectReleaseSet, rc Context) ([]byte, error) {
	page := htmlPage{
		Title:       rc.Title,
		Projects:    make([]htmlProject, 0, len(projects)),
		Updated:     rc.Timestamp(),
		ForceURL:    rc.ForceURL(),
		MarkdownURL: rc.FormatURL(FormatMarkdown),
		JSONURL:     rc.FormatURL(FormatJSON),
	}
	for _, p := range projects {
		hp := htmlProject{
			Key:      p.Project.String(),
			URL:      rc.ProjectURL(p.Project),
			Versions: make([]htmlLink, 0, len(p.Versions)),
		}
		for _, v := range p.Versions {
			hp.Versions = append(hp.Versions, htmlLink{Name: v.Name, URL: rc.VersionURL(p.Project, v.ID)})
		}
		page.Projects = append(page.Projects, hp)
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page.html.tmpl", page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
