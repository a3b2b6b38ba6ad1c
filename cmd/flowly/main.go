package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/estexav/Flowly/internal/amqp"
	"github.com/estexav/Flowly/internal/assistant"
	"github.com/estexav/Flowly/internal/authn"
	"github.com/estexav/Flowly/internal/config"
	apphttp "github.com/estexav/Flowly/internal/http"
	"github.com/estexav/Flowly/internal/ledger"
	"github.com/estexav/Flowly/internal/ledger/firestore"
	"github.com/estexav/Flowly/internal/ledger/memory"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/services"
	"github.com/estexav/Flowly/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

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
		logger.Info("Initialized in-memory ledger")
	}

	// AMQP is optional: without it queued writes rely on the worker's
	// polling sweep.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer bus.Close()
		publisher = bus
		logger.Info("Connected to message bus", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("No AMQP URL configured, sync requests will rely on polling")
	}

	syncEngine := services.NewSyncEngine(st, ledgerClient, cfg.RemoteTimeout, logger)
	finance := services.NewFinanceService(st, ledgerClient, syncEngine, publisher, cfg.RemoteTimeout, logger)

	auth := authn.New(cfg.FirebaseWebAPIKey, logger)

	var generator assistant.Generator
	switch cfg.AssistantProvider {
	case "gemini":
		if cfg.GeminiAPIKey != "" {
			generator = assistant.NewGeminiGenerator(cfg.GeminiAPIKey)
		}
	case "openai":
		if cfg.OpenAIAPIKey != "" {
			generator = assistant.NewOpenAIGenerator(cfg.OpenAIAPIKey)
		}
	}
	if generator == nil {
		logger.Info("No assistant model configured, using heuristic responses only")
	}
	aiEngine := assistant.NewEngine(generator, cfg.AssistantTimeout, logger)

	srv := apphttp.NewServer(":"+cfg.Port, finance, auth, aiEngine, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting flowly server", "port", cfg.Port, "ledger_backend", cfg.LedgerBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
