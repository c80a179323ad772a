package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/elemdex/elemdex/internal/ui"
)

// newRebuildCmd creates the rebuild command.
func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the relationship index now",
		Long: `Force an immediate rebuild of the relationship index, regardless of
cache freshness, and persist the new snapshot to disk.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := buildWiring()
			if err != nil {
				return err
			}

			start := time.Now()
			snap, err := w.manager.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			w.manager.Wait()

			p := ui.NewPrinter(cmd.OutOrStdout())
			p.Success("rebuilt relationship index in %s", time.Since(start).Round(time.Millisecond))
			p.Field("elements", "%d", snap.ElementCount)
			p.Field("edges", "%d", len(snap.Edges))
			p.Field("config version", "%s", snap.ConfigVersion)
			return nil
		},
	}
}
