package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/elemdex/elemdex/internal/ui"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show relationship index status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := buildWiring()
			if err != nil {
				return err
			}

			st := w.manager.Status()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			p.Header("elemdex index status")
			p.Field("state dir", "%s", w.stateDir)
			p.Field("config version", "%s", st.ConfigVersion)
			if !st.HasSnapshot {
				p.Warning("no snapshot loaded; first query will build one")
				return nil
			}
			p.Field("built at", "%s", st.BuiltAt.Format(time.RFC3339))
			p.Field("fresh", "%t", st.Fresh)
			p.Field("elements", "%d", st.ElementCount)
			p.Field("edges", "%d", st.EdgeCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}
