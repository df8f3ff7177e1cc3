package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releaseboard/pkg/buildinfo"
	"github.com/matzehuels/releaseboard/pkg/integrations"
	"github.com/matzehuels/releaseboard/pkg/releases"
)

// DefaultPageSize is the maxResults value sent with each listing request.
const DefaultPageSize = 100

// maxPages bounds pagination for a single project.
const maxPages = 1000

// Client lists project versions for one Jira site.
// It is safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL  string
	pageSize int
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL  string
	timeout  time.Duration
	pageSize int
	logger   *log.Logger
	http     *http.Client
	attempts int
	delay    time.Duration
}

// WithBaseURL overrides the API origin (default "https://{site}").
func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithPageSize sets maxResults for each page. Non-positive values are ignored.
func WithPageSize(n int) Option { return func(o *options) { o.pageSize = n } }

// WithLogger sets the logger used for per-project warnings.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// WithRetry makes up to attempts tries per page on network errors and
// 429/502/503/504 responses, waiting delay before the first retry.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *options) { o.attempts, o.delay = attempts, delay }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(o *options) { o.http = h } }

// NewClient creates a client for site (a bare host such as
// "acme.atlassian.net") authenticating with email and API token.
func NewClient(site, email, token string, opts ...Option) *Client {
	o := options{
		baseURL:  "https://" + site,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 {
		o.pageSize = DefaultPageSize
	}
	if o.logger == nil {
		o.logger = log.Default()
	}

	headers := map[string]string{
		"Authorization": integrations.BasicAuth(email, token),
		"Accept":        "application/json",
		"User-Agent":    buildinfo.UserAgent(),
	}
	base := integrations.NewClient(o.timeout, headers)
	if o.http != nil {
		base = base.WithHTTPClient(o.http)
	}
	if o.attempts > 1 {
		base = base.WithRetry(o.attempts, o.delay)
	}

	return &Client{
		Client:   base,
		baseURL:  o.baseURL,
		pageSize: o.pageSize,
		logger:   o.logger,
	}
}

// VersionsURL returns the first-page listing URL for key.
func (c *Client) VersionsURL(key releases.ProjectKey) string {
	return fmt.Sprintf("%s/rest/api/3/project/%s/version?maxResults=%d",
		c.baseURL, url.PathEscape(key.String()), c.pageSize)
}

// FetchUnreleasedVersions returns the unreleased, non-archived versions of
// the project in listing order.
//
// A non-2xx page ends pagination with a warning and returns what was
// collected so far. Network and decode failures are returned as errors.
func (c *Client) FetchUnreleasedVersions(ctx context.Context, key releases.ProjectKey) ([]releases.UnreleasedVersion, error) {
	out := make([]releases.UnreleasedVersion, 0)
	next := c.VersionsURL(key)
	seen := make(map[string]bool)

	for pages := 0; next != "" && pages < maxPages; pages++ {
		if seen[next] {
			c.logger.Warn("pagination loop detected", "project", key, "url", next)
			break
		}
		seen[next] = true

		var page versionPage
		if err := c.Get(ctx, next, &page); err != nil {
			var statusErr *integrations.StatusError
			if errors.As(err, &statusErr) {
				c.logger.Warn("version listing failed",
					"project", key, "status", statusErr.StatusCode, "url", next)
				break
			}
			return nil, fmt.Errorf("project %s: %w", key, err)
		}

		out = append(out, releases.FilterUnreleased(page.Values)...)

		if page.IsLast || page.NextPage == "" {
			break
		}
		resolved, err := resolve(next, page.NextPage)
		if err != nil {
			c.logger.Warn("invalid nextPage link", "project", key, "next", page.NextPage, "err", err)
			break
		}
		next = resolved
	}

	c.logger.Debug("fetched versions", "project", key, "unreleased", len(out))
	return out, nil
}

// resolve interprets ref relative to the page it came from, so both absolute
// and relative nextPage links work.
func resolve(current, ref string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(r).String(), nil
}
