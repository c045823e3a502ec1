package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-backend/internal/cache"
	"shop-backend/internal/database"
	"shop-backend/internal/logging"
	"shop-backend/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.DefaultLogger()
	defer logger.Sync()

	db, err := database.Init(cfg)
	if err != nil {
		return err
	}

	cacher, closeCache, err := cache.NewCacher(cfg)
	if err != nil {
		logger.Warnw("redis unavailable, store cache disabled", "addr", cfg.RedisAddr, "err", err)
		cacher, closeCache = cache.NewNoop(), func() error { return nil }
	}
	defer closeCache()

	app := server.New(cfg, db, cacher)

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server listening", "port", cfg.HTTPPort)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Infow("shutting down", "signal", sig.String())
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Errorw("server shutdown", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
