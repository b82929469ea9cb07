package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/equipviz/rotorline/internal/server"
	"github.com/equipviz/rotorline/pkg/pipeline"
)

const serveShutdownTimeout = 5 * time.Second

// serveCommand creates the serve command: the interactive timeline surface
// over HTTP with websocket change notifications.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		firstYear int
		lastYear  int
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the interactive timeline surface",
		Long: `Serve starts the HTTP API for the interactive timeline: scene state,
drag handling with connector rerouting, SVG export, and websocket pushes.
With a file argument the scene is pre-loaded from that decoded workbook;
without one the server starts empty and waits for POST /api/scene/load.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return c.runServe(cmd.Context(), source, addr, firstYear, lastYear, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().IntVar(&firstYear, "first-year", 0, "pin the first year of the span")
	cmd.Flags().IntVar(&lastYear, "last-year", 0, "pin the last year of the span")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, source, addr string, firstYear, lastYear int, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := server.New(cfg.Layout, c.Logger)
	defer srv.Close()

	if source != "" {
		runner, err := c.newRunner(ctx, cfg, noCache)
		if err != nil {
			return err
		}
		defer runner.Close()

		opts := pipeline.Options{
			Source:    source,
			FirstYear: firstYear,
			LastYear:  lastYear,
			Layout:    cfg.Layout,
			Logger:    c.Logger,
		}
		result, err := runner.Execute(withLogger(ctx, c.Logger), opts)
		if err != nil {
			return err
		}
		srv.SetScene(result.Scene, result.Records, result.Span)
		printInfo("Pre-loaded %d records", result.Stats.RecordCount)
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	printSuccess("Listening on %s", addr)
	printKeyValue("scene", "GET /api/scene")
	printKeyValue("load", "POST /api/scene/load")
	printKeyValue("drag", "POST /api/nodes/{id}/drag")
	printKeyValue("export", "GET /api/export.svg")
	printKeyValue("events", "GET /ws")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		printInfo("Server stopped")
		return nil
	}
}
