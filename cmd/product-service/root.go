package main

import (
	"log/slog"
	"os"

	"github.com/LavaJover/shvark-product-service/internal/config"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        *config.ProductConfig
	log        *slog.Logger
	closeLog   func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "product-service",
		Short: "Product catalogue with a Kafka message hand-off",
		Long: `product-service stores products in Postgres and moves text payloads
through a Kafka topic into an in-process buffer.

Commands:
- serve:   run HTTP, gRPC health and the topic consumer
- migrate: apply database migrations
- send:    publish one payload to the topic
- await:   consume until N payloads have arrived`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("PRODUCT_CONFIG_PATH"),
		"path to the YAML config (defaults to $PRODUCT_CONFIG_PATH, environment only when empty)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSendCmd(a),
		newAwaitCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, closeLog, err := logger.New(cfg.LogConfig)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	a.cfg = cfg
	a.log = log.With("env", cfg.Env)
	a.closeLog = closeLog
	return nil
}
