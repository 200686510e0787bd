package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airadar/citation-bot/internal/api"
	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/database"
	"github.com/airadar/citation-bot/internal/monitoring"
	"github.com/airadar/citation-bot/internal/notifications"
	"github.com/airadar/citation-bot/internal/providers"
	"github.com/airadar/citation-bot/internal/scanner"
	"github.com/airadar/citation-bot/internal/scheduler"
	"github.com/airadar/citation-bot/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting AI Radar citation bot")

	store, err := database.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	archive, err := newArchive(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize archive storage: %v", err)
	}

	sc := scanner.New(providers.Default(cfg), cfg.ProviderTimeout)
	for provider, ok := range sc.Availability() {
		if !ok {
			logrus.Warnf("Provider %s has no API key configured", provider)
		}
	}

	monitoringService := monitoring.NewService(cfg, sc, store, archive, notifications.NewService(cfg))

	// Rebuild scan history from the archive when the database is new
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Minute)
	if restored, err := monitoringService.RestoreHistory(restoreCtx); err != nil {
		logrus.Errorf("Failed to restore scan history: %v", err)
	} else if restored > 0 {
		logrus.Infof("Database restored with %d archived scan records", restored)
	}
	cancelRestore()

	schedulerService, err := scheduler.NewService(cfg, monitoringService)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	if len(cfg.Keywords) > 0 {
		if err := schedulerService.Start(); err != nil {
			logrus.Fatalf("Failed to start scheduler: %v", err)
		}
		defer schedulerService.Stop()
	} else {
		logrus.Info("No KEYWORDS configured, scheduled monitoring disabled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewRouter(monitoringService, cfg.DemoRateLimit),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ScanTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newArchive uses Azure Blob Storage when an account is configured and the
// local archive directory otherwise.
func newArchive(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageAccount == "" {
		logrus.Infof("Archiving scans to %s", cfg.ArchiveDir)
		return storage.NewLocalStore(cfg.ArchiveDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return storage.NewBlobStore(ctx, cfg.StorageAccount, cfg.StorageContainer)
}
