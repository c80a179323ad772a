// Package cmd provides the CLI commands for elemdex.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elemdex/elemdex/internal/logging"
	"github.com/elemdex/elemdex/pkg/version"
)

var (
	debugMode      bool
	configPath     string
	portfolioPath  string
	statePath      string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the elemdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elemdex",
		Short: "Capability-relationship index for element portfolios",
		Long: `elemdex discovers which elements of a portfolio (personas, skills,
templates, agents, memories, ensembles) are semantically related, using
lexical-overlap and information-density scoring - no embeddings, no
language-specific stop-word lists.

Run 'elemdex serve' to expose the index to AI clients over MCP, or query
directly with 'elemdex related <element-id>'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("elemdex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.elemdex/logs/")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.elemdex/config.yaml)")
	cmd.PersistentFlags().StringVar(&portfolioPath, "portfolio", "", "Path to portfolio directory (default ~/.elemdex/portfolio)")
	cmd.PersistentFlags().StringVar(&statePath, "state-dir", "", "Path to state directory (default ~/.elemdex/state)")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRelatedCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables debug logging when the --debug flag is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

// stopLogging closes the debug log file.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
