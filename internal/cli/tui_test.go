package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/releaseboard/pkg/config"
	"github.com/matzehuels/releaseboard/pkg/releases"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Jira.Site = "acme.atlassian.net"
	cfg.Jira.Email = "me@example.com"
	cfg.Jira.Token = "secret"
	cfg.Jira.Projects = "ABC, XYZ"
	return cfg
}

func testBoard() []releases.ProjectReleaseSet {
	return []releases.ProjectReleaseSet{
		{Project: "ABC", Versions: []releases.UnreleasedVersion{{Name: "1.2.0", ID: "10"}, {Name: "1.3.0", ID: "11"}}},
		{Project: "DEF", Versions: []releases.UnreleasedVersion{}},
		{Project: "XYZ", Versions: []releases.UnreleasedVersion{{Name: "2.0", ID: "20"}}},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m ProjectListModel, keys ...string) (ProjectListModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(ProjectListModel)
	}
	return m, cmd
}

func TestProjectListModelNavigation(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		cursor int
	}{
		{"start", nil, 0},
		{"down", []string{"down"}, 1},
		{"vim keys", []string{"j", "j", "k"}, 1},
		{"clamped at top", []string{"up", "up"}, 0},
		{"clamped at bottom", []string{"down", "down", "down", "down"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(NewProjectListModel(testBoard()), tt.keys...)
			if m.Cursor != tt.cursor {
				t.Errorf("Cursor = %d, want %d", m.Cursor, tt.cursor)
			}
		})
	}
}

func TestProjectListModelSelect(t *testing.T) {
	m, cmd := press(NewProjectListModel(testBoard()), "down", "down", "enter")
	if m.Selected == nil {
		t.Fatal("Selected = nil after enter")
	}
	if m.Selected.Project != "XYZ" {
		t.Errorf("Selected.Project = %q, want XYZ", m.Selected.Project)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestProjectListModelQuit(t *testing.T) {
	m, cmd := press(NewProjectListModel(testBoard()), "q")
	if m.Selected != nil {
		t.Error("quitting must not select a project")
	}
	if cmd == nil {
		t.Error("q should return tea.Quit")
	}
}

func TestProjectListModelScrolls(t *testing.T) {
	m := NewProjectListModel(testBoard())
	m.Height = 2

	m, _ = press(m, "down", "down")
	if m.Offset != 1 {
		t.Errorf("Offset = %d, want 1", m.Offset)
	}
	m, _ = press(m, "up", "up")
	if m.Offset != 0 {
		t.Errorf("Offset = %d, want 0", m.Offset)
	}
}

func TestProjectListModelWindowSize(t *testing.T) {
	next, _ := NewProjectListModel(testBoard()).Update(tea.WindowSizeMsg{Width: 80, Height: 4})
	if h := next.(ProjectListModel).Height; h != 5 {
		t.Errorf("Height = %d, want minimum 5", h)
	}
}

func TestProjectListModelView(t *testing.T) {
	view := NewProjectListModel(testBoard()).View()
	for _, want := range []string{"Unreleased Versions", "ABC", "1.2.0, 1.3.0", emptyVersions, "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	empty := NewProjectListModel(nil).View()
	if !strings.Contains(empty, "No projects configured.") {
		t.Errorf("empty View() = %q", empty)
	}
}

func TestPrintProjectLinks(t *testing.T) {
	out := captureStdout(t)
	rc, err := renderContext(testConfig(), "", fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	printProjectLinks(testBoard()[0], rc.ProjectURL, rc.VersionURL)
	printProjectLinks(testBoard()[1], rc.ProjectURL, rc.VersionURL)

	got := out.String()
	for _, want := range []string{
		"https://acme.atlassian.net/jira/software/c/projects/ABC/summary",
		"https://acme.atlassian.net/projects/ABC/versions/11",
		"no unreleased versions",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
