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

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/Suko/forecaster-enterprise-sub006/internal/config"
	"github.com/Suko/forecaster-enterprise-sub006/internal/forecast"
	"github.com/Suko/forecaster-enterprise-sub006/internal/kafka"
	"github.com/Suko/forecaster-enterprise-sub006/internal/models"
	"github.com/Suko/forecaster-enterprise-sub006/internal/orchestrator"
	repopg "github.com/Suko/forecaster-enterprise-sub006/internal/repository/postgres"
	"github.com/Suko/forecaster-enterprise-sub006/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbConfig := repopg.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}

	db, err := repopg.NewDatabase(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := runMigrations(db, cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	runRepo := repopg.NewRunRepository(db)
	resultRepo := repopg.NewResultRepository(db)
	classificationRepo := repopg.NewClassificationRepository(db)

	registry := forecast.NewRegistryWithTunables(forecast.Tunables{
		CrostonAlpha:  cfg.Forecast.CrostonAlpha,
		SBAAlpha:      cfg.Forecast.SBAAlpha,
		MinMaxFloor:   cfg.Forecast.MinMaxFloor,
		MinMaxCeiling: cfg.Forecast.MinMaxCeiling,
		Chronos2Seed:  cfg.Forecast.Chronos2Seed,
	})

	logger, err := newLoggerOrDefault(cfg)
	if err != nil {
		log.Printf("failed to build configured logger, using default: %v", err)
	}

	producer, err := kafka.NewKafkaProducer(cfg, logger)
	if err != nil {
		log.Printf("failed to connect to Kafka, run-lifecycle events will not publish: %v", err)
	} else {
		defer producer.Close()
	}

	orch := orchestrator.New(
		noopHistoryProvider{},
		runRepo,
		resultRepo,
		classificationRepo,
		registry,
		orchestrator.Options{
			MinHistoryDays: cfg.Forecast.MinHistoryDays,
			NaNPolicy:      models.NaNPolicy(cfg.Forecast.DefaultNaNPolicy),
			ItemTimeout:    time.Duration(cfg.Forecast.ItemTimeoutSeconds) * time.Second,
		},
		logger,
	).WithProducer(producer)

	httpServer := server.NewHTTPServer(cfg, orch, runRepo, resultRepo, producer)

	go func() {
		log.Printf("Starting server on port %d", cfg.Server.Port)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// runMigrations runs the database migrations
func runMigrations(db *repopg.Database, dbConfig config.DatabaseConfig) error {
	driver, err := postgres.WithInstance(db.GetDB().DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://db/migrations",
		dbConfig.DBName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
