package main

import (
	"github.com/aretw0/sessiond/internal/cli"
	"github.com/aretw0/sessiond/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a cart and checkout walkthrough in-process",
	Long: `Creates a session, fills and empties a cart, runs a three step checkout
workflow to completion and deletes the session, printing each state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var catalog cli.Catalog = cli.DemoCatalog()
		if cfg.Catalog.File != "" || cfg.Catalog.Redis.Addr != "" {
			c, closeCatalog, err := cli.OpenCatalog(cmd.Context(), cfg.Catalog, logger)
			if err != nil {
				return err
			}
			defer closeCatalog()
			catalog = c
		}

		out := cmd.OutOrStdout()
		return cli.Demo(cmd.Context(), out, catalog, tui.NewRenderer(out), logger)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
