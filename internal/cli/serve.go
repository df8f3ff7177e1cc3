package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releaseboard/pkg/cache"
	"github.com/matzehuels/releaseboard/pkg/config"
	"github.com/matzehuels/releaseboard/pkg/observability"
	"github.com/matzehuels/releaseboard/pkg/server"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var noMetrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the release board over HTTP",
		Long: `Serve the release board over HTTP.

GET / renders the board; ?format=html|markdown|md|json picks the format and
?force bypasses the response cache. Responses are cached for the configured
fresh window and served stale while a background refresh runs.

A missing JIRA_SITE, JIRA_EMAIL, JIRA_TOKEN or JIRA_PROJECTS does not stop the
server; every board request answers with the configuration error instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, !noMetrics, nil)
		},
	}

	cmd.Flags().StringP(flagAddress, "a", "", fmt.Sprintf("address to listen on (default %q)", config.DefaultAddress))
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	c.bindFlags(cmd, flagAddress)

	return cmd
}

// runServe serves until ctx is cancelled, then shuts down gracefully. If
// ready is non-nil it receives the bound address once the listener is up.
func (c *CLI) runServe(ctx context.Context, cfg *config.Config, metrics bool, ready chan<- string) error {
	logger := loggerFromContext(ctx)

	store, err := cache.Open(ctx, cfg.Cache.URL, cfg.Cache.Database)
	if err != nil {
		return fmt.Errorf("open cache %s: %w", cache.Describe(cfg.Cache.URL), err)
	}
	defer store.Close()

	var opts []server.ServerOption
	opts = append(opts, server.WithServerLogger(logger))
	if metrics {
		m := observability.NewMetrics()
		m.Install()
		defer observability.Reset()
		opts = append(opts, server.WithMetrics(m))
	}

	if err := cfg.Validate(); err != nil {
		logger.Warn("board requests will fail until the configuration is fixed", "err", err)
	}
	gate := server.NewGate(cfg, c.newRunner(cfg),
		server.WithCache(store),
		server.WithLogger(logger),
	)

	srv := &http.Server{
		Handler:      server.NewServer(gate, opts...),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Address, err)
	}
	addr := ln.Addr().String()

	logger.Info("server listening",
		"address", addr,
		"cache", cache.Describe(cfg.Cache.URL),
		"projects", len(cfg.ProjectKeys()),
	)
	if ready != nil {
		ready <- addr
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultGracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		return err
	}
	gate.Wait()

	logger.Info("server shutdown complete")
	return nil
}
