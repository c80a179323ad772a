package cmd

import (
	"log/slog"

	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/index"
	"github.com/elemdex/elemdex/internal/relationship"
	"github.com/elemdex/elemdex/internal/store"
)

// wiring holds the assembled core components shared by all subcommands.
type wiring struct {
	cfg      *config.Config
	store    *store.PortfolioStore
	manager  *index.Manager
	stateDir string
}

// buildWiring loads config and assembles the store, builder, and index
// manager from the CLI flags.
func buildWiring() (*wiring, error) {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	portfolioDir := portfolioPath
	if portfolioDir == "" {
		portfolioDir = store.DefaultPortfolioDir()
	}

	stateDir := statePath
	if stateDir == "" {
		stateDir = config.DefaultStateDir()
	}

	logger := slog.Default()
	st := store.NewPortfolioStore(portfolioDir, logger)
	builder := relationship.NewBuilder(cfg, st, logger)
	manager := index.NewManager(cfg, st, builder, stateDir, logger)

	return &wiring{
		cfg:      cfg,
		store:    st,
		manager:  manager,
		stateDir: stateDir,
	}, nil
}
