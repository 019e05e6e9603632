package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/schoolsharks/quickk-webn-sub000/api"
	"github.com/schoolsharks/quickk-webn-sub000/application"
	"github.com/schoolsharks/quickk-webn-sub000/config"
	"github.com/schoolsharks/quickk-webn-sub000/database"
	"github.com/schoolsharks/quickk-webn-sub000/repository"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting lottery service")

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	if err := database.MigrateUp(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize unit of work factory and application services
	uowFactory := repository.NewUnitOfWorkFactory(db)
	orchestrator := application.NewPurchaseOrchestrator(uowFactory)

	// Start the winner selection worker
	var stopWorker func()
	if cfg.Worker.Enabled {
		worker := application.NewWinnerSelectionWorker(uowFactory, cfg.Worker.ScanInterval)
		stopWorker = worker.Start(ctx)
	} else {
		log.Warn("Winner selection worker is disabled; ended draws will not be resolved")
	}

	// Start the HTTP server
	handler := api.NewHandler(orchestrator, uowFactory)
	server := api.NewServer(cfg, handler)

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.GetServerAddr()).Info("HTTP server listening")
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server failure
	select {
	case err := <-serverErr:
		if stopWorker != nil {
			stopWorker()
		}
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Info("Shutting down...")

	if stopWorker != nil {
		stopWorker()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	log.Info("Shutdown completed")
	return nil
}

// configureLogging sets up logrus according to the environment
func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
}
