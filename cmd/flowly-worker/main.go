package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/estexav/Flowly/internal/amqp"
	"github.com/estexav/Flowly/internal/config"
	"github.com/estexav/Flowly/internal/ledger"
	"github.com/estexav/Flowly/internal/ledger/firestore"
	"github.com/estexav/Flowly/internal/ledger/memory"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/services"
	"github.com/estexav/Flowly/internal/store"
	"github.com/estexav/Flowly/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting flowly-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.SQLiteStorePath)
	if err != nil {
		logger.Error("Failed to open local store", applog.FieldError, err, "path", cfg.SQLiteStorePath)
		os.Exit(1)
	}
	defer st.Close()

	var ledgerClient ledger.Client
	switch cfg.LedgerBackend {
	case "firestore":
		ledgerClient, err = firestore.New(context.Background(), cfg.FirebaseProjectID, cfg.GoogleCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize Firestore ledger", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Initialized Firestore ledger", "project_id", cfg.FirebaseProjectID)
	default:
		ledgerClient = memory.New()
		logger.Warn("Running against the in-memory ledger, synced entries will not persist")
	}

	var bus *amqp.Client
	if cfg.AMQPURL != "" {
		bus, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer bus.Close()
		logger.Info("Connected to message bus", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP URL configured, draining queues on the poll interval only")
	}

	engine := services.NewSyncEngine(st, ledgerClient, cfg.RemoteTimeout, logger)
	processor := services.NewSyncProcessor(st, engine, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	}, logger)
	syncWorker := worker.NewSyncWorker(engine, processor, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := syncWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
