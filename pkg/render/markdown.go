package render

import (
	"strings"

	"github.com/matzehuels/releaseboard/pkg/releases"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	`[`, `\[`,
	`]`, `\]`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`<`, `&lt;`,
	`>`, `&gt;`,
	"\r", " ",
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func mdLink(text, url string) string {
	return "[" + escapeMarkdown(text) + "](" + url + ")"
}

// RenderMarkdown renders a document with a heading, a project table and a
// footer linking to every variant.
func RenderMarkdown(projects []releases.ProjectReleaseSet, rc Context) []byte {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(escapeMarkdown(rc.Title))
	b.WriteString("\n\n")

	if len(projects) == 0 {
		b.WriteString("No projects configured.\n")
	} else {
		b.WriteString("| Project | Unreleased Versions |\n")
		b.WriteString("| ------- | ------------------- |\n")
		for _, p := range projects {
			b.WriteString("| ")
			b.WriteString(mdLink(p.Project.String(), rc.ProjectURL(p.Project)))
			b.WriteString(" | ")
			if len(p.Versions) == 0 {
				b.WriteString("—")
			}
			for i, v := range p.Versions {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(mdLink(v.Name, rc.VersionURL(p.Project, v.ID)))
			}
			b.WriteString(" |\n")
		}
	}

	b.WriteString("\n---\n\n")
	b.WriteString("Updated: ")
	b.WriteString(rc.Timestamp())
	b.WriteString("\n\n")
	b.WriteString(mdLink("HTML", rc.FormatURL(FormatHTML)))
	b.WriteString(" · ")
	b.WriteString(mdLink("Markdown", rc.FormatURL(FormatMarkdown)))
	b.WriteString(" · ")
	b.WriteString(mdLink("JSON", rc.FormatURL(FormatJSON)))
	b.WriteString("\n")

	return []byte(b.String())
}
