package main

import (
	"fmt"

	"github.com/aretw0/sessiond/internal/cli"
	"github.com/aretw0/sessiond/internal/presentation/tui"
	"github.com/aretw0/sessiond/pkg/adapters/redis"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or seed the product catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		catalog, closeCatalog, err := cli.OpenCatalog(cmd.Context(), cfg.Catalog, logger)
		if err != nil {
			return err
		}
		defer closeCatalog()

		out := cmd.OutOrStdout()
		return cli.ListCatalog(cmd.Context(), out, catalog, tui.NewRenderer(out))
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Copy a YAML catalog into Redis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Catalog.Redis.Addr == "" {
			return fmt.Errorf("catalog.redis.addr is not configured")
		}

		dst := redis.New(cfg.Catalog.Redis.Addr, cfg.Catalog.Redis.Password, cfg.Catalog.Redis.DB,
			redis.WithPrefix(cfg.Catalog.Redis.Prefix))
		defer dst.Close()
		if err := dst.Ping(cmd.Context()); err != nil {
			return err
		}

		n, err := cli.SeedCatalog(cmd.Context(), args[0], dst)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products into %s\n", n, cfg.Catalog.Redis.Addr)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}
