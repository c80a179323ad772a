package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elemdex/elemdex/internal/errors"
	"github.com/elemdex/elemdex/internal/nlp"
	"github.com/elemdex/elemdex/internal/relationship"
	"github.com/elemdex/elemdex/internal/ui"
)

// newRelatedCmd creates the related command.
func newRelatedCmd() *cobra.Command {
	var jsonOutput bool
	var band string

	cmd := &cobra.Command{
		Use:   "related <element-id>",
		Short: "List elements related to an element",
		Long: `Query the relationship index for every edge touching the given
element. Element ids use the type:name form, e.g. persona:creative-writer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelated(cmd, args[0], band, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output edges as JSON")
	cmd.Flags().StringVar(&band, "band", "", "Filter by band (same-domain, common-word-overlap, distinct-domains, unclassified)")
	return cmd
}

func runRelated(cmd *cobra.Command, elementID, band string, jsonOutput bool) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}
	defer w.manager.Wait()

	edges, err := w.manager.GetRelated(cmd.Context(), elementID)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), errors.FormatForCLI(err))
		return err
	}

	if band != "" {
		edges = relationship.FilterByBand(edges, nlp.Band(band))
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(edges)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if len(edges) == 0 {
		p.Plain("no related elements for %s", elementID)
		return nil
	}

	p.Header(fmt.Sprintf("Related to %s", elementID))
	for _, e := range edges {
		other := e.From
		if other == elementID {
			other = e.To
		}
		p.Plain("  %-40s jaccard=%.3f band=%s", other, e.Jaccard, e.Band)
	}
	return nil
}
