package main

import (
	"context"

	"github.com/aretw0/sessiond/internal/cli"
	"github.com/aretw0/sessiond/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the session registry and its expiry sweep behind a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("listen") {
			cfg.Listen, _ = flags.GetString("listen")
		}
		if flags.Changed("ttl") {
			cfg.Session.TTL, _ = flags.GetDuration("ttl")
		}
		if flags.Changed("sweep-interval") {
			cfg.Session.SweepInterval, _ = flags.GetDuration("sweep-interval")
		}
		if flags.Changed("catalog") {
			cfg.Catalog.File, _ = flags.GetString("catalog")
		}
		if flags.Changed("redis-addr") {
			cfg.Catalog.Redis.Addr, _ = flags.GetString("redis-addr")
		}
		if flags.Changed("no-metrics") {
			noMetrics, _ := flags.GetBool("no-metrics")
			cfg.Metrics.Enabled = !noMetrics
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if quiet, _ := flags.GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		err = cli.Serve(ctx, cfg, logger)
		if sig := ctx.Signal(); sig != nil {
			logger.Info("Received signal", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
	serveCmd.Flags().Duration("ttl", 0, "Sliding session expiration window")
	serveCmd.Flags().Duration("sweep-interval", 0, "How often expired sessions are swept")
	serveCmd.Flags().String("catalog", "", "YAML product catalog file")
	serveCmd.Flags().String("redis-addr", "", "Redis address for the product catalog")
	serveCmd.Flags().Bool("no-metrics", false, "Disable the Prometheus endpoint")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
