package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/investor-account-ledger/internal/api"
	"github.com/investor-account-ledger/internal/api/service"
	"github.com/investor-account-ledger/internal/config"
	"github.com/investor-account-ledger/internal/data/mongo"
	"github.com/investor-account-ledger/internal/data/postgres"
	"github.com/investor-account-ledger/internal/engine"
	"github.com/investor-account-ledger/internal/ingest"
	"github.com/investor-account-ledger/internal/logger"
	"github.com/investor-account-ledger/internal/platform/cache"
	"github.com/investor-account-ledger/internal/platform/messaging/consumers"
	"github.com/investor-account-ledger/internal/platform/messaging/producers"
	"github.com/investor-account-ledger/internal/platform/persistence"
	"github.com/investor-account-ledger/internal/reconciler"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize side cache
	redisCache, err := cache.NewRedisCache(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis cache", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producers
	auditProducer, err := producers.NewAuditProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit producer", "error", err)
		os.Exit(1)
	}

	alertProducer, err := producers.NewAlertProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize alert producer", "error", err)
		os.Exit(1)
	}
	var alerts producers.AlertPublisher
	if alertProducer != nil {
		alerts = alertProducer
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	journalRepo := postgres.NewJournalRepository(log, postgresDB)
	if err := mongo.EnsureIndexes(appCtx, log, mongoDB.Database()); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		os.Exit(1)
	}
	transactionRepo := mongo.NewTransactionRepository(log, mongoDB.Database())

	// Initialize the transaction engine and the read-side services
	txnEngine := engine.NewEngine(log, postgresDB, accountRepo, transactionRepo, journalRepo, redisCache, auditProducer, alerts, cfg.Redis.TTL)
	accountService := service.NewAccountService(log, accountRepo, redisCache, cfg.Redis.TTL)
	transactionReader := service.NewTransactionReader(log, transactionRepo, redisCache, cfg.Redis.TTL)

	// Start the journal reconciler
	completer := reconciler.NewRecordCompleter(log, journalRepo, transactionRepo)
	journalReconciler, err := reconciler.NewReconciler(log, &cfg.Reconciler, journalRepo, completer, alerts)
	if err != nil {
		log.Error("Failed to initialize reconciler", "error", err)
		os.Exit(1)
	}
	go journalReconciler.Start(appCtx)

	// Start the optional queue-ingestion consumer
	var consumer *consumers.KafkaConsumer
	if cfg.Kafka.IngestTopic != "" {
		consumer = consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)
		handler := ingest.NewEventHandler(log, txnEngine, alerts)
		if err := consumer.Subscribe(appCtx, cfg.Kafka.IngestTopic, cfg.Kafka.ConsumerGroup, handler.HandleMessage); err != nil {
			log.Error("Failed to subscribe to ingestion topic", "error", err)
			os.Exit(1)
		}
	}

	// Initialize REST server
	server := api.NewServer(log, cfg, accountService, txnEngine, transactionReader)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context to stop the reconciler and consumer
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if consumer != nil {
		if err = consumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}

	journalReconciler.Shutdown()

	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing audit producer", "error", err)
	}
	if alertProducer != nil {
		if err = alertProducer.Close(); err != nil {
			log.Error("Error closing alert producer", "error", err)
		}
	}

	if err = redisCache.Close(); err != nil {
		log.Error("Error closing Redis cache", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("Server exited with error", "error", serverErr)
		os.Exit(1)
	}

	log.Info("Server exited gracefully")
}
