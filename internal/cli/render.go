package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releaseboard/pkg/config"
	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/pipeline"
	"github.com/matzehuels/releaseboard/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	format  string // html, markdown, md or json
	output  string // output file; empty writes to stdout
	baseURL string // absolute URL the board is published at, for variant links
}

// renderCommand creates the render command, which runs the pipeline once
// without the response cache.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: render.DefaultFormat.String()}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the release board once",
		Long: `Render the release board once, bypassing every cache.

The board is written to stdout unless --output is given. Use --base-url to make
the format links in the footer absolute, e.g. when publishing the file.`,
		Example: `  releaseboard render --format md > RELEASES.md
  releaseboard render -f json -o board.json
  releaseboard render -o index.html --base-url https://status.example.com/releases`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadValidConfig()
			if err != nil {
				return err
			}
			return c.runRender(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: html, markdown (md), json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "absolute URL the board is served from")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(render.Formats))
		for i, f := range render.Formats {
			names[i] = f.String()
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, cfg *config.Config, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	format, err := render.ParseFormatStrict(opts.format)
	if err != nil {
		return err
	}
	rc, err := renderContext(cfg, opts.baseURL, time.Now())
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	keys := cfg.ProjectKeys()
	var result *pipeline.Result
	err = c.fetchWithSpinner(ctx, len(keys), func() (err error) {
		result, err = c.newRunner(cfg).Execute(ctx, pipeline.Options{
			Projects: keys,
			Format:   format,
			Context:  rc,
		})
		return err
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s board", format))

	if opts.output == "" {
		_, err := stdout.Write(result.Output.Body)
		return err
	}
	if err := writeFile(opts.output, result.Output.Body); err != nil {
		return err
	}

	printSuccess("Rendered %s", format)
	printFile(opts.output)
	printStats(result.Stats.ProjectCount, result.Stats.VersionCount, prog.elapsed())
	if format == render.FormatHTML {
		abs, _ := filepath.Abs(opts.output)
		printNextStep("Open in a browser", "file://"+abs)
	}
	return nil
}

// renderContext describes a board rendered outside an HTTP request. Without
// a base URL the format links stay relative.
func renderContext(cfg *config.Config, baseURL string, now time.Time) (render.Context, error) {
	rc := render.Context{
		GeneratedAt: now.UTC().Truncate(time.Second),
		SiteHost:    cfg.Jira.Site,
		Title:       cfg.Title,
	}
	if baseURL == "" {
		return rc, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return rc, errors.New(errors.ErrCodeInvalidConfig, "invalid --base-url %q: want http(s)://host[/path]", baseURL)
	}
	rc.Scheme = u.Scheme
	rc.Host = u.Host
	rc.Path = u.EscapedPath()
	return rc, nil
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
