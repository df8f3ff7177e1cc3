package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releaseboard/pkg/cache"
	"github.com/matzehuels/releaseboard/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered-response cache",
		Long: `Manage the rendered-response cache used by serve.

The backend is selected with --cache (or cache.url in the config file). The
in-memory backend lives only as long as the server process, so there is
nothing to manage for it here.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if isProcessLocal(cfg) {
				printInfo("The %s cache is not persistent; nothing to clear", cfg.Cache.URL)
				return nil
			}

			store, err := cache.Open(cmd.Context(), cfg.Cache.URL, cfg.Cache.Database)
			if err != nil {
				return fmt.Errorf("open cache %s: %w", cache.Describe(cfg.Cache.URL), err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printWarning("The %s cache cannot be cleared", cache.Describe(cfg.Cache.URL))
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared cached responses")
			printDetail("Backend: %s", cache.Describe(cfg.Cache.URL))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := fileCacheDir(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}

// isProcessLocal reports whether the configured cache disappears with the
// server process.
func isProcessLocal(cfg *config.Config) bool {
	switch cfg.Cache.URL {
	case "", "memory", "memory://", "none", "off":
		return true
	}
	return false
}

// fileCacheDir returns the directory of the configured file cache, or the
// default directory when another backend is configured.
func fileCacheDir(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Cache.URL != "file" && !strings.HasPrefix(cfg.Cache.URL, "file:") {
		return cache.DefaultDir()
	}
	store, err := cache.Open(ctx, cfg.Cache.URL, cfg.Cache.Database)
	if err != nil {
		return "", err
	}
	defer store.Close()
	if fc, ok := store.(*cache.FileCache); ok {
		return fc.Dir(), nil
	}
	return cache.DefaultDir()
}
