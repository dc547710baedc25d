package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"github.com/edupress/edu-platform-api/api"
	"github.com/edupress/edu-platform-api/config"
	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/router"
	"github.com/edupress/edu-platform-api/services/cron"
	"github.com/edupress/edu-platform-api/services/device"
)

// SetupAndRunServer loads configuration, connects the backing services,
// wires the routes and runs the HTTP server until a shutdown signal.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	cfg, err := config.Get()
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := database.StartMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("Check whether MongoDB is running and MONGODB_URI is reachable")
		return err
	}

	if err := store.Init(ctx); err != nil {
		log.Error("Failed to create database indexes")
		return err
	}

	// Device sweep runs regardless of router wiring so stale devices are
	// freed even when tracking is later re-enabled.
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" && cfg.EnableDeviceTracking {
		cronManager = cron.NewCronManager(device.NewService(store, cfg.DeviceLimit))
		if err := cronManager.Start(); err != nil {
			log.Warnf("Failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if err := store.Close(ctx); err != nil {
			log.Warnf("Failed to close database connection: %v", err)
		}
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", cfg.Port))
	app := server.GetEngine()

	if err := router.SetupRoutes(ctx, app, store, cfg); err != nil {
		return err
	}

	// Drain in-flight requests on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Shutdown signal received, draining connections")
		if err := server.Shutdown(); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}()

	return server.Run()
}
