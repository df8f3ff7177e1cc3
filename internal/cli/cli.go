// Package cli implements the releaseboard command-line interface.
//
// The same pipeline backs every command: serve puts it behind the cache gate,
// render writes one board to a file or stdout, and list prints a terminal
// table (or an interactive browser).
//
// # Configuration
//
// Settings come from an optional TOML file (--config), the JIRA_* and
// RELEASEBOARD_* environment variables and finally command-line flags, in
// increasing order of precedence.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/releaseboard/pkg/buildinfo"
	"github.com/matzehuels/releaseboard/pkg/config"
	"github.com/matzehuels/releaseboard/pkg/httputil"
	"github.com/matzehuels/releaseboard/pkg/integrations/jira"
	"github.com/matzehuels/releaseboard/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and env prefixes.
	appName = "releaseboard"

	// envPrefix prefixes environment variables bound to flags, e.g.
	// RELEASEBOARD_CONFIG.
	envPrefix = "RELEASEBOARD"
)

// Flag keys shared by viper and cobra.
const (
	flagConfig      = "config"
	flagAddress     = "address"
	flagCache       = "cache"
	flagConcurrency = "concurrency"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// status receives the fetch spinner and its outcome line. It shares the
	// logger's stream so stdout carries only command output.
	status io.Writer

	v *viper.Viper

	// jiraOpts are appended to every Jira client the CLI builds.
	jiraOpts []jira.Option
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &CLI{
		Logger: newLogger(w, level),
		status: w,
		v:      v,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Releaseboard lists unreleased Jira versions across projects",
		Long:         `Releaseboard collects the unreleased versions of a set of Jira projects and renders them as an HTML page, a Markdown document or JSON, either once from the command line or continuously behind a caching HTTP server.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringP(flagConfig, "c", "", "path to a TOML configuration file")
	flags.String(flagCache, "", "response cache: none, memory, file[:///dir], redis://..., mongodb://...")
	flags.Int(flagConcurrency, 0, "number of projects fetched at once")
	c.bindFlags(root, flagConfig, flagCache, flagConcurrency)

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// bindFlags binds the named persistent or local flags of cmd to viper, so
// RELEASEBOARD_<NAME> can stand in for each of them.
func (c *CLI) bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		f := cmd.PersistentFlags().Lookup(name)
		if f == nil {
			f = cmd.Flags().Lookup(name)
		}
		if err := c.v.BindPFlag(name, f); err != nil {
			c.Logger.Fatal("bind flag", "flag", name, "err", err)
		}
	}
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration file and environment, then applies
// flag overrides. It does not validate.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.v.GetString(flagConfig))
	if err != nil {
		return nil, err
	}
	if addr := c.v.GetString(flagAddress); addr != "" {
		cfg.Server.Address = addr
	}
	if url := c.v.GetString(flagCache); url != "" {
		cfg.Cache.URL = url
	}
	if n := c.v.GetInt(flagConcurrency); n > 0 {
		cfg.Fetch.Concurrency = n
	}
	cfg.Normalize()
	return cfg, nil
}

// loadValidConfig is loadConfig for commands that cannot run without
// tracking credentials.
func (c *CLI) loadValidConfig() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the Jira client for cfg.
func (c *CLI) newRunner(cfg *config.Config) *pipeline.Runner {
	opts := []jira.Option{
		jira.WithTimeout(cfg.Fetch.Timeout.Duration),
		jira.WithPageSize(cfg.Jira.PageSize),
		jira.WithRetry(cfg.Fetch.Retries+1, httputil.DefaultRetryDelay),
		jira.WithLogger(c.Logger),
	}
	opts = append(opts, c.jiraOpts...)
	client := jira.NewClient(cfg.Jira.Site, cfg.Jira.Email, cfg.Jira.Token, opts...)
	return pipeline.NewRunner(client, cfg.Fetch.Concurrency, c.Logger)
}

// fetchWithSpinner runs fetch behind a spinner on the status stream. When the
// command is interrupted the context error is returned without a failure line.
func (c *CLI) fetchWithSpinner(ctx context.Context, projects int, fetch func() error) error {
	spin := newSpinner(ctx, c.status, fmt.Sprintf("Fetching %s...", plural(projects, "project")))
	spin.Start()
	if err := fetch(); err != nil {
		if spin.Cancelled() {
			spin.Stop()
			return ctx.Err()
		}
		spin.StopWithError("Fetch failed")
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("Fetched %s", plural(projects, "project")))
	return nil
}

// stdout is where commands write their results. Replaced in tests.
var stdout io.Writer = os.Stdout
