package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contas/internal/amqp"
	"contas/internal/cli"
	apphttp "contas/internal/http"
	"contas/internal/log"
	"contas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	slogger := cli.SetupLogger()
	logger := log.New(log.DefaultConfig())

	logger.Info("Starting contas")

	cfg := cli.LoadAndValidateConfig(slogger)

	repo := cli.InitSQLite(slogger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The broker is optional. Without it writes still land in SQLite, only
	// the spreadsheet export stops.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue, cfg.AMQPDeleteQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled, sync messages will not be published")
	}

	srv := apphttp.NewServer(cfg, repo, publisher, logger)

	ctx, done := cli.GracefulShutdown(slogger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("HTTP server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("contas stopped")
}
