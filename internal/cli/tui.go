package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/releaseboard/pkg/releases"
)

// List styles
var (
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listBorderStyle = lipgloss.NewStyle().Foreground(colorDim)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// emptyVersions is shown for projects without pending versions.
const emptyVersions = "—"

// boardTable renders projects as a bordered table. When cursor is a valid
// row index that row is highlighted; pass -1 for a static table.
func boardTable(projects []releases.ProjectReleaseSet, cursor int) *table.Table {
	rows := make([][]string, len(projects))
	for i, p := range projects {
		rows[i] = []string{p.Project.String(), fmt.Sprint(len(p.Versions)), versionNames(p.Versions)}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listBorderStyle).
		Headers("Project", "#", "Unreleased Versions").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(projects) {
				return base
			}
			switch {
			case row == cursor:
				return base.Foreground(colorCyan).Bold(true)
			case len(projects[row].Versions) == 0:
				return base.Foreground(colorDim)
			case col == 0:
				return base.Foreground(colorGreen)
			}
			return base
		})
}

func versionNames(versions []releases.UnreleasedVersion) string {
	if len(versions) == 0 {
		return emptyVersions
	}
	names := make([]string, len(versions))
	for i, v := range versions {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// ProjectListModel - Interactive project browser
// =============================================================================

// ProjectListModel is the bubbletea model for browsing the board and picking
// a project.
type ProjectListModel struct {
	Projects []releases.ProjectReleaseSet
	Cursor   int
	Selected *releases.ProjectReleaseSet
	Height   int
	Offset   int
}

// NewProjectListModel creates a new project list model.
func NewProjectListModel(projects []releases.ProjectReleaseSet) ProjectListModel {
	return ProjectListModel{
		Projects: projects,
		Height:   15,
	}
}

func (m ProjectListModel) Init() tea.Cmd {
	return nil
}

func (m ProjectListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Projects)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Projects) == 0 {
				return m, tea.Quit
			}
			p := m.Projects[m.Cursor]
			m.Selected = &p
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ProjectListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Unreleased Versions"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ show links  q quit"))
	b.WriteString("\n\n")

	if len(m.Projects) == 0 {
		b.WriteString(listDimStyle.Render("No projects configured."))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Projects))
	b.WriteString(boardTable(m.Projects[m.Offset:end], m.Cursor-m.Offset).Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Projects))))

	return b.String()
}
