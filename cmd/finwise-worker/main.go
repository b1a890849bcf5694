package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/NT912/FinWise-sub000/internal/config"
	"github.com/NT912/FinWise-sub000/internal/events"
	"github.com/NT912/FinWise-sub000/internal/export"
	gsheet "github.com/NT912/FinWise-sub000/internal/export/google"
	mem "github.com/NT912/FinWise-sub000/internal/export/memory"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/storage"
	"github.com/NT912/FinWise-sub000/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{})
	applog.SetDefault(logger)

	logger.Info("starting finwise-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var writer export.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("report export to Google Sheets enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Info("no GOOGLE_SPREADSHEET_ID provided, keeping report summaries in memory")
	}

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	exportWorker := worker.NewExportWorker(repo, writer, cfg.ExportDebounce, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exportWorker.Run(gctx)
	})
	g.Go(func() error {
		return eventsClient.ConsumeLedgerEvents(gctx, exportWorker.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
