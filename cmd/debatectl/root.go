package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/roundtable/backend/internal/config"
	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
)

func newRootCmd() *cobra.Command {
	var catalogPath string

	root := &cobra.Command{
		Use:   "debatectl",
		Short: "Run multi-agent puzzle debates locally",
		Long: `debatectl configures a deck of agent cards and lets them debate a puzzle
round by round until the facilitator settles on an answer.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog YAML file (default $DEBATE_CATALOG_PATH or the built-in catalog)")

	root.AddCommand(newRunCmd(&catalogPath))
	root.AddCommand(newCatalogCmd(&catalogPath))
	return root
}

// loadConfig reads .env when present and then the environment.
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func loadCatalog(flagPath string, cfg config.Config) (*catalog.MemoryStore, error) {
	path := flagPath
	if path == "" {
		path = cfg.Debate.CatalogPath
	}
	if path == "" {
		return catalog.NewMemoryStore(catalog.Seed()), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.NewMemoryStore(c), nil
}
