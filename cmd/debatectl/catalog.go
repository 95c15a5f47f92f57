package main

import (
	"github.com/spf13/cobra"

	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
)

func newCatalogCmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective card catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := loadCatalog(*catalogPath, cfg)
			if err != nil {
				return err
			}
			data, err := catalog.Marshal(store.Get())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
