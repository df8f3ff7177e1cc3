package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/releaseboard/pkg/buildinfo"
	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/integrations/jira"
	"github.com/matzehuels/releaseboard/pkg/releases"
)

// captureStdout redirects command output into a buffer for the rest of the
// test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// fakeJiraServer answers version listings: ABC has one pending and one
// released version, every other project has none.
func fakeJiraServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := []map[string]any{}
		if strings.Contains(r.URL.Path, "/project/ABC/") {
			values = append(values,
				map[string]any{"id": "10", "name": "1.2.0", "released": false, "archived": false},
				map[string]any{"id": "9", "name": "1.1.0", "released": true, "archived": false},
			)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values, "isLast": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setJiraEnv configures the required tracking settings through the
// environment, as a deployment would.
func setJiraEnv(t *testing.T, projects string) {
	t.Helper()
	t.Setenv("JIRA_SITE", "acme.atlassian.net")
	t.Setenv("JIRA_EMAIL", "me@example.com")
	t.Setenv("JIRA_TOKEN", "secret")
	t.Setenv("JIRA_PROJECTS", projects)
}

func newTestCLI(t *testing.T, jiraURL string) *CLI {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	if jiraURL != "" {
		c.jiraOpts = []jira.Option{jira.WithBaseURL(jiraURL)}
	}
	return c
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandVersion(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "releaseboard version "+buildinfo.Version)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	for _, name := range []string{"serve", "render", "list", "cache", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.SetLogLevel(LogDebug)
	assert.Equal(t, log.DebugLevel, c.Logger.GetLevel())
}

func TestLoadConfigPrecedence(t *testing.T) {
	setJiraEnv(t, "ABC")
	dir := t.TempDir()
	path := filepath.Join(dir, "releaseboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[jira]
site = "file.atlassian.net"

[cache]
url = "file:///from-file"
`), 0o644))

	fileDir := filepath.Join(dir, "cache")
	out := captureStdout(t)
	c := newTestCLI(t, "")
	require.NoError(t, execute(t, c, "cache", "path", "--config", path, "--cache", "file://"+fileDir))

	assert.Equal(t, fileDir+"\n", out.String(), "flag beats config file")

	cfg, err := c.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "acme.atlassian.net", cfg.Jira.Site, "environment beats config file")
}

func TestLoadConfigFromEnvPrefix(t *testing.T) {
	setJiraEnv(t, "ABC")
	t.Setenv("RELEASEBOARD_CONCURRENCY", "7")

	c := newTestCLI(t, "")
	c.RootCommand()

	cfg, err := c.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Fetch.Concurrency)
}

func TestRenderCommandMarkdown(t *testing.T) {
	setJiraEnv(t, "xyz, abc")
	srv := fakeJiraServer(t)
	out := captureStdout(t)

	require.NoError(t, execute(t, newTestCLI(t, srv.URL), "render", "--format", "md"))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "# My Active Jira Releases"), got)
	assert.Contains(t, got, "[1.2.0](https://acme.atlassian.net/projects/ABC/versions/10)")
	assert.NotContains(t, got, "1.1.0", "released versions are filtered out")
	assert.Less(t, strings.Index(got, "[ABC]"), strings.Index(got, "[XYZ]"), "projects are sorted")
}

func TestRenderCommandOutputFile(t *testing.T) {
	setJiraEnv(t, "ABC XYZ")
	srv := fakeJiraServer(t)
	captureStdout(t)

	path := filepath.Join(t.TempDir(), "out", "board.json")
	require.NoError(t, execute(t, newTestCLI(t, srv.URL),
		"render", "-f", "json", "-o", path, "--base-url", "https://status.example.com/releases"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Meta struct {
			Links struct {
				Markdown string `json:"markdown"`
			} `json:"links"`
		} `json:"meta"`
		Projects []struct {
			Project  string `json:"project"`
			Releases []struct {
				Version string `json:"version"`
			} `json:"releases"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Projects, 2)
	assert.Equal(t, "ABC", doc.Projects[0].Project)
	assert.Len(t, doc.Projects[0].Releases, 1)
	assert.Empty(t, doc.Projects[1].Releases)
	assert.Equal(t, "https://status.example.com/releases?format=markdown", doc.Meta.Links.Markdown)
}

func TestRenderCommandRejectsUnknownFormat(t *testing.T) {
	setJiraEnv(t, "ABC")
	err := execute(t, newTestCLI(t, "http://127.0.0.1:1"), "render", "--format", "pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), err.Error())
}

func TestRenderCommandMissingConfig(t *testing.T) {
	for _, name := range []string{"JIRA_SITE", "JIRA_EMAIL", "JIRA_TOKEN", "JIRA_PROJECTS"} {
		t.Setenv(name, "")
	}
	err := execute(t, newTestCLI(t, ""), "render")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
	assert.Contains(t, err.Error(), "JIRA_SITE")
}

func TestListCommand(t *testing.T) {
	setJiraEnv(t, "ABC XYZ")
	srv := fakeJiraServer(t)
	out := captureStdout(t)

	require.NoError(t, execute(t, newTestCLI(t, srv.URL), "list"))

	got := out.String()
	assert.Contains(t, got, "ABC")
	assert.Contains(t, got, "1.2.0")
	assert.Contains(t, got, emptyVersions)
	assert.Contains(t, got, "2 projects · 1 version")
}

func TestRunnerDoesNotRetryFailedPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"values":[{"id":"10","name":"1.2.0"}],"isLast":true}`)
	}))
	t.Cleanup(srv.Close)

	projects, err := newTestCLI(t, srv.URL).newRunner(testConfig()).Board(context.Background(), []releases.ProjectKey{"ABC"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "a failed page is not requested again")
	require.Len(t, projects, 1)
	assert.Equal(t, releases.ProjectKey("ABC"), projects[0].Project)
	assert.Empty(t, projects[0].Versions)
}

func TestRenderCommandReportsFetchOnStatusStream(t *testing.T) {
	setJiraEnv(t, "ABC XYZ")
	srv := fakeJiraServer(t)
	out := captureStdout(t)

	c := newTestCLI(t, srv.URL)
	status := &syncBuffer{}
	c.status = status
	require.NoError(t, execute(t, c, "render", "--format", "md"))

	assert.Contains(t, status.String(), "✓ Fetched 2 projects")
	assert.NotContains(t, out.String(), "Fetched", "stdout carries only the board")
}

func TestRenderCommandFetchFailure(t *testing.T) {
	setJiraEnv(t, "ABC")
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	out := captureStdout(t)

	c := newTestCLI(t, srv.URL)
	status := &syncBuffer{}
	c.status = status
	err := execute(t, c, "render", "--format", "md")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	assert.Contains(t, status.String(), "✗ Fetch failed")
	assert.Empty(t, out.String())
}

func TestListCommandInterrupted(t *testing.T) {
	setJiraEnv(t, "ABC")
	srv := fakeJiraServer(t)
	captureStdout(t)

	c := newTestCLI(t, srv.URL)
	status := &syncBuffer{}
	c.status = status

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := c.RootCommand()
	root.SetArgs([]string{"list"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, status.String(), "Fetch failed", "an interrupt is not reported as a failure")
}

func TestCacheClearFileBackend(t *testing.T) {
	setJiraEnv(t, "ABC")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.json"), []byte("{}"), 0o644))
	out := captureStdout(t)

	require.NoError(t, execute(t, newTestCLI(t, ""), "cache", "clear", "--cache", "file://"+dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, out.String(), "Cleared cached responses")
}

func TestCacheClearMemoryBackend(t *testing.T) {
	out := captureStdout(t)
	require.NoError(t, execute(t, newTestCLI(t, ""), "cache", "clear", "--cache", "memory"))
	assert.Contains(t, out.String(), "not persistent")
}

func TestCompletionCommand(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "releaseboard")
}

func TestRenderContext(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{name: "relative", baseURL: "", want: "/?format=json"},
		{name: "absolute", baseURL: "https://example.com/board", want: "https://example.com/board?format=json"},
		{name: "root", baseURL: "http://localhost:8080", want: "http://localhost:8080/?format=json"},
		{name: "no host", baseURL: "/board", wantErr: true},
		{name: "bad scheme", baseURL: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := renderContext(cfg, tt.baseURL, fixedNow)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rc.FormatURL("json"))
			assert.Equal(t, "acme.atlassian.net", rc.SiteHost)
		})
	}
}
