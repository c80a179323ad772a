package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/elemdex/elemdex/internal/index"
	"github.com/elemdex/elemdex/internal/mcp"
	"github.com/elemdex/elemdex/internal/telemetry"
	"github.com/elemdex/elemdex/internal/trigger"
	"github.com/elemdex/elemdex/internal/watcher"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the elemdex MCP server on stdio, exposing get_related,
rebuild_index, and index_status tools to AI clients.

The portfolio directory is watched for changes; edits invalidate the
relationship index so the next query rebuilds.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable portfolio file watching")
	return cmd
}

func runServe(ctx context.Context, noWatch bool) error {
	// MCP requires stdout exclusively for JSON-RPC; all diagnostics go to
	// the slog default (stderr or the debug log file).
	w, err := buildWiring()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := trigger.NewResolver(func() *index.Manager { return w.manager })

	metrics := telemetry.NewMetrics()
	w.manager.SetMetrics(metrics)

	server, err := mcp.NewServer(resolver, w.cfg, slog.Default())
	if err != nil {
		return err
	}
	server.SetMetrics(metrics)

	g, gctx := errgroup.WithContext(ctx)

	if !noWatch {
		pw, err := watcher.New(watcher.Options{}, slog.Default())
		if err != nil {
			slog.Warn("portfolio watching disabled", "error", err)
		} else {
			g.Go(func() error {
				err := pw.Start(gctx, w.store.Root(), w.store)
				if err == context.Canceled {
					return nil
				}
				return err
			})
		}
	}

	g.Go(func() error {
		defer w.manager.Wait()
		err := server.Serve(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	return g.Wait()
}
