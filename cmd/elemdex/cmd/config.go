package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/elemdex/elemdex/configs"
	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/ui"
)

// newConfigCmd creates the config command with show and validate subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated starting-point config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := configPath
			if cfgPath == "" {
				cfgPath = config.DefaultConfigPath()
			}

			p := ui.NewPrinter(cmd.OutOrStdout())

			if _, err := os.Stat(cfgPath); err == nil && !force {
				p.Warning("config already exists at %s (use --force to overwrite)", cfgPath)
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(cfgPath, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			p.Success("wrote %s", cfgPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := configPath
			if cfgPath == "" {
				cfgPath = config.DefaultConfigPath()
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			p.Field("config file", "%s", cfgPath)
			p.Field("config version", "%s", cfg.Version())
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Check every range and monotonicity invariant of the configuration and
report all violations at once, so they can be fixed in a single pass.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := configPath
			if cfgPath == "" {
				cfgPath = config.DefaultConfigPath()
			}

			p := ui.NewPrinter(cmd.OutOrStdout())

			// Load reports every violation at once, not just the first.
			cfg, err := config.Load(cfgPath)
			if err != nil {
				p.Error("%v", err)
				return err
			}

			p.Success("configuration valid (version %s)", cfg.Version())
			return nil
		},
	}
}
