package render

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/releaseboard/pkg/releases"
)

// Context is the per-request input to rendering besides the data itself.
type Context struct {
	GeneratedAt time.Time // truncated to seconds, UTC
	Scheme      string    // "http" or "https"; empty means http
	Host        string    // request host; empty makes variant links relative
	Path        string    // request path; empty means "/"
	SiteHost    string    // Jira site, e.g. "acme.atlassian.net"
	Title       string
}

// NewContext builds a Context from an incoming request.
func NewContext(r *http.Request, siteHost, title string, now time.Time) Context {
	return Context{
		GeneratedAt: now.UTC().Truncate(time.Second),
		Scheme:      RequestScheme(r),
		Host:        r.Host,
		Path:        r.URL.Path,
		SiteHost:    siteHost,
		Title:       title,
	}
}

// RequestScheme returns the scheme the client used: a well-formed
// X-Forwarded-Proto header wins, then TLS, then "http".
func RequestScheme(r *http.Request) string {
	if p := forwardedProto(r.Header.Get("X-Forwarded-Proto")); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func forwardedProto(h string) string {
	first, _, _ := strings.Cut(h, ",")
	switch p := strings.ToLower(strings.TrimSpace(first)); p {
	case "http", "https":
		return p
	}
	return ""
}

// Timestamp returns the generation time as "2006-01-02 15:04:05 UTC".
func (c Context) Timestamp() string {
	return c.GeneratedAt.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

func (c Context) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// FormatURL links to the same board in format f. The link is absolute when
// the request host is known.
func (c Context) FormatURL(f Format) string {
	rel := c.path() + "?format=" + url.QueryEscape(f.String())
	if c.Host == "" {
		return rel
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + c.Host + rel
}

// ForceURL links to the HTML board with the cache bypassed.
func (c Context) ForceURL() string {
	return c.path() + "?force=1"
}

// ProjectURL links to the project summary on the Jira site.
func (c Context) ProjectURL(key releases.ProjectKey) string {
	return "https://" + c.SiteHost + "/jira/software/c/projects/" + url.PathEscape(key.String()) + "/summary"
}

// VersionURL links to one version on the Jira site.
func (c Context) VersionURL(key releases.ProjectKey, id string) string {
	return "https://" + c.SiteHost + "/projects/" + url.PathEscape(key.String()) + "/versions/" + url.PathEscape(id)
}
