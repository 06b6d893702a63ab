package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkravets/rag-assistant/internal/bootstrap"
	"github.com/mkravets/rag-assistant/internal/config"
	"github.com/mkravets/rag-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "worker")
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.WorkerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCollectionIndex(ctx, func(handlerCtx context.Context, collection string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		app.WorkerMetrics.StartIndexing()
		start := time.Now()
		stored, indexErr := app.IndexUC.IndexCollection(indexCtx, collection)
		app.WorkerMetrics.FinishIndexing("worker", time.Since(start), indexErr)

		if indexErr != nil {
			slog.Error("index_collection_failed", "collection", collection, "error", indexErr)
			return indexErr
		}
		app.WorkerMetrics.ObserveIndexedChunks("worker", stored)
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
