package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/promptree/internal/config"
	"github.com/matzehuels/promptree/pkg/api"
	"github.com/matzehuels/promptree/pkg/buildinfo"
	"github.com/matzehuels/promptree/pkg/errors"
	"github.com/matzehuels/promptree/pkg/graph"
	"github.com/matzehuels/promptree/pkg/pipeline"
)

// shutdownTimeout bounds graceful shutdown, running batches included.
var shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command that exposes the graph over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over HTTP for a browser front-end",
		Long: `Serve the graph over HTTP for a browser front-end.

The server starts from the working file if it exists, otherwise from a
graph holding the default system node. It never writes the working file:
clients save with GET /api/export/json and restore with POST /api/import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, opts, listen, err := c.serverRunner(addr, origins)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              listen,
				Handler:           api.NewServer(r, opts, c.Logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return c.runServer(cmd.Context(), srv, r)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, or "+config.DefaultAddr+")")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origin (repeatable)")
	return cmd
}

// serverRunner builds the runner and API options for serve. Flags win over
// config values.
func (c *CLI) serverRunner(addr string, origins []string) (*pipeline.Runner, api.Options, string, error) {
	r, cfg, err := c.openWorkingFile()
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		c.Logger.Info("no working file, starting with an empty conversation", "path", c.file)
		r, cfg, err = c.newRunner(graph.NewDefault(), 0)
	}
	if err != nil {
		return nil, api.Options{}, "", err
	}

	if addr == "" {
		addr = cfg.Server.Addr
	}
	if len(origins) == 0 {
		origins = cfg.Server.AllowedOrigins
	}
	return r, api.Options{AllowedOrigins: origins, Now: c.clock()}, addr, nil
}

// runServer serves until ctx is cancelled, then shuts down and waits for
// running batches until shutdownTimeout expires.
func (c *CLI) runServer(ctx context.Context, srv *http.Server, r *pipeline.Runner) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printSuccess("Serving %s", StyleLink.Render("http://"+srv.Addr))
	printKeyValue("Version", buildinfo.Version)
	printKeyValue("Nodes", fmt.Sprint(r.Graph.NodeCount()))
	c.Logger.Debug("server started", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := r.WaitContext(shutdownCtx); err != nil {
		c.Logger.Warn("batches still running at shutdown", "err", err)
	}
	return nil
}
