package render

import (
	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/releases"
)

// Result is a rendered body with its content type.
type Result struct {
	Format      Format
	ContentType string
	Body        []byte
}

// Render produces the body for format f. Projects must already be
// normalized; Render does not reorder them.
func Render(f Format, projects []releases.ProjectReleaseSet, rc Context) (Result, error) {
	var (
		body []byte
		err  error
	)
	switch f {
	case FormatMarkdown:
		body = RenderMarkdown(projects, rc)
	case FormatJSON:
		body, err = RenderJSON(projects, rc)
	default:
		f = FormatHTML
		body, err = RenderHTML(projects, rc)
	}
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeRender, err, "render %s", f)
	}
	return Result{Format: f, ContentType: f.ContentType(), Body: body}, nil
}
