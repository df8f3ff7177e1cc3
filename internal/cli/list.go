package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releaseboard/pkg/config"
	"github.com/matzehuels/releaseboard/pkg/releases"
)

// listCommand creates the list command, a terminal view of the board.
func (c *CLI) listCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show unreleased versions in the terminal",
		Long: `Show unreleased versions in the terminal.

With --interactive, browse the projects and press enter to print the Jira links
of the selected project's versions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadValidConfig()
			if err != nil {
				return err
			}
			return c.runList(cmd, cfg, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse projects interactively")

	return cmd
}

func (c *CLI) runList(cmd *cobra.Command, cfg *config.Config, interactive bool) error {
	ctx := cmd.Context()
	keys := cfg.ProjectKeys()

	prog := newProgress(loggerFromContext(ctx))
	var projects []releases.ProjectReleaseSet
	err := c.fetchWithSpinner(ctx, len(keys), func() (err error) {
		projects, err = c.newRunner(cfg).Board(ctx, keys)
		return err
	})
	if err != nil {
		return err
	}
	elapsed := prog.elapsed()

	if !interactive {
		printBoard(projects, elapsed)
		return nil
	}

	final, err := tea.NewProgram(NewProjectListModel(projects), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("project browser: %w", err)
	}
	if m, ok := final.(ProjectListModel); ok && m.Selected != nil {
		rc, _ := renderContext(cfg, "", time.Now())
		printProjectLinks(*m.Selected, rc.ProjectURL, rc.VersionURL)
	}
	return nil
}

// printBoard prints the static board table with a summary line.
func printBoard(projects []releases.ProjectReleaseSet, elapsed time.Duration) {
	if len(projects) == 0 {
		printWarning("No projects configured.")
		return
	}
	fmt.Fprintln(stdout, boardTable(projects, -1).Render())

	versions := 0
	for _, p := range projects {
		versions += len(p.Versions)
	}
	printStats(len(projects), versions, elapsed)
}

// printProjectLinks prints a project's summary link followed by one line per
// version.
func printProjectLinks(
	p releases.ProjectReleaseSet,
	projectURL func(releases.ProjectKey) string,
	versionURL func(releases.ProjectKey, string) string,
) {
	fmt.Fprintln(stdout, StyleTitle.Render(p.Project.String())+" "+StyleLink.Render(projectURL(p.Project)))
	if len(p.Versions) == 0 {
		printDetail("no unreleased versions")
		return
	}
	for _, v := range p.Versions {
		printKeyValue(v.Name, StyleLink.Render(versionURL(p.Project, v.ID)))
	}
}
