package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"outpost/internal/api"
	"outpost/internal/db"
	"outpost/internal/db/repositories"
	"outpost/internal/events"
	"outpost/internal/logging"
	"outpost/internal/services"
)

func runServer() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	repos := repositories.New(database)

	bus, err := events.NewBus(cfg.Events)
	if err != nil {
		return fmt.Errorf("failed to start events bus: %w", err)
	}
	if bus != nil {
		defer bus.Close()
		logging.Info("Events bus connected: %s", bus.URL())
	}

	localMode := viper.GetBool("local_mode")
	if localMode {
		logging.Info("Running in local mode, authentication disabled")
	}

	gateway := services.NewGatewayService(repos, cfg.MCPServers, bus)
	defer gateway.Shutdown()

	server := api.New(cfg, database, repos, gateway, localMode)
	logging.Info("API server listening on port %d", cfg.APIPort)
	return server.Start(ctx)
}
