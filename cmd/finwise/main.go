package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/NT912/FinWise-sub000/internal/budget"
	"github.com/NT912/FinWise-sub000/internal/category"
	"github.com/NT912/FinWise-sub000/internal/config"
	"github.com/NT912/FinWise-sub000/internal/events"
	apphttp "github.com/NT912/FinWise-sub000/internal/http"
	"github.com/NT912/FinWise-sub000/internal/ledger"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/storage"
)

func main() {
	// Load .env for local development, ignore errors in production.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher ledger.Publisher
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect to AMQP", applog.FieldError, err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		publisher = eventsClient
		logger.Info("ledger events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("ledger events disabled, no AMQP_URL provided")
	}

	coord := ledger.New(repo, publisher, ledger.Config{
		MaxAttempts:   cfg.LedgerMaxAttempts,
		RetryBase:     cfg.LedgerRetryBase,
		CommitTimeout: cfg.CommitTimeout,
	}, logger)

	budgetSvc := budget.NewService(repo, budget.Defaults{
		TotalBudget:  cfg.DefaultTotalBudget,
		SavingTarget: cfg.DefaultSavingTarget,
	}, logger)

	categorySvc := category.NewService(repo, logger)

	srv := apphttp.NewServer(":"+cfg.Port, coord, budgetSvc, categorySvc, repo, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting finwise server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
