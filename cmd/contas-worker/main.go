package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"contas/internal/amqp"
	"contas/internal/cli"
	"contas/internal/log"
	gsheet "contas/internal/sheets/google"
	"contas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	slogger := cli.SetupLogger()
	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)

	logger.Info("Starting contas-worker")

	cfg := cli.LoadAndValidateConfig(slogger)

	repo := cli.InitSQLite(slogger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		return
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPDeleteQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize)

	ctx, done := cli.GracefulShutdown(slogger, 30*time.Second, nil)

	// Rows written while the worker was down never got their messages
	// consumed, so sweep the backlog before listening.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeTransactionSync(gctx, func(msg *amqp.TransactionSyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		return amqpClient.ConsumeTransactionDelete(gctx, func(msg *amqp.TransactionDeleteMessage) error {
			return syncWorker.HandleDeleteMessage(gctx, msg)
		})
	})

	// Periodic sweep for messages that were lost or nacked out.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := syncWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("contas-worker stopped")
}
