// Package main provides the main entry point for the tariff sync service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wbtools/tariff-sync/app/handlers"
	"github.com/wbtools/tariff-sync/app/queue"
	"github.com/wbtools/tariff-sync/app/router"
	"github.com/wbtools/tariff-sync/app/scheduler"
	"github.com/wbtools/tariff-sync/app/services"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/config"
	"github.com/wbtools/tariff-sync/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application holds the wired service components
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
}

func main() {
	log.Println("Starting tariff sync service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client backing the job queue
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.GetRedisAddr(), cfg.RedisDB)
	return rc, nil
}

// initializeApplication wires repositories, flows, queue workers and schedulers
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Repositories
	warehouseRepo := repository.NewWarehouseRepository(db)
	tariffRepo := repository.NewTariffDailyRepository(db)
	ingestRepo := repository.NewTariffIngestRepository(db)
	targetRepo := repository.NewExportTargetRepository(db)

	// Business flows
	tariffsClient := services.NewTariffsClient(cfg.WBFeed)
	ingestFlow := businessflow.NewTariffIngestFlow(tariffsClient, warehouseRepo, tariffRepo, ingestRepo, db)
	exportFlow := businessflow.NewExportFlow(tariffRepo, targetRepo)

	// Job queue and worker pool
	q := queue.NewTariffsQueue(rc, cfg.Queue)

	app := &Application{config: cfg}

	workerCtx := context.Background()
	stopWorkers := q.Start(workerCtx, func(ctx context.Context, job *queue.IngestJob) error {
		_, err := ingestFlow.IngestDate(ctx, job.Date)
		return err
	})
	app.stopFuncs = append(app.stopFuncs, stopWorkers)

	// Schedulers
	if cfg.Scheduler.Enabled {
		ingestScheduler := scheduler.NewTariffScheduler(q, cfg.Scheduler.IngestInterval)
		app.stopFuncs = append(app.stopFuncs, ingestScheduler.Start(workerCtx))

		if cfg.Export.Enabled {
			exportScheduler := scheduler.NewExportScheduler(exportFlow, cfg.Scheduler.ExportInterval)
			app.stopFuncs = append(app.stopFuncs, exportScheduler.Start(workerCtx))
		}
	}

	// HTTP layer
	tariffsHandler := handlers.NewTariffsHandler(ingestFlow, q)
	exportHandler := handlers.NewExportHandler(exportFlow)
	app.router = router.NewFiberRouter(cfg, tariffsHandler, exportHandler)

	return app, nil
}
