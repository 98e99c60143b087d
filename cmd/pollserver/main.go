package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/server"
	"github.com/gravadigital/smartpolls/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("pollserver", flag.ExitOnError)
	fs.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP port (env PORT)")
	fs.StringVar(&cfg.Server.StorageType, "storage", cfg.Server.StorageType, "Storage backend: memory, sqlite or postgres (env STORAGE_TYPE)")
	fs.StringVar(&cfg.DB.SQLitePath, "sqlite", cfg.DB.SQLitePath, "SQLite database file (env SQLITE_PATH)")
	_ = fs.Parse(os.Args[1:])

	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	storageType, err := storage.ValidateStorageType(cfg.Server.StorageType)
	if err != nil {
		log.Error("Invalid storage configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewFactory(storageType).CreateStore(cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "storage", storageType, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close storage", "error", err)
		}
	}()

	log.Info("Storage ready", "storage", storageType, "environment", cfg.Server.Environment)

	srv := server.New(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", "error", err)
			return
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		return
	}
	log.Info("Server exited")
}
