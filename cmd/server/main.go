package main

import (
	"fmt"
	"os"

	"shop-backend/internal/config"
	"shop-backend/internal/logging"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "shop-backend",
	Short:        "Merchant admin backend: users, stores and catalogs",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig reads the configuration and sets up the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	err = logging.SetConfig(&logging.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		return nil, fmt.Errorf("logging config: %w", err)
	}
	for _, w := range cfg.Warnings() {
		logging.DefaultLogger().Warnw("config", "warning", w)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
