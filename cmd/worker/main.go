package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/erp-document-processor/internal/bootstrap"
	"github.com/kirillkom/erp-document-processor/internal/config"
	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/erp-document-processor/internal/observability/logging"
	"github.com/kirillkom/erp-document-processor/internal/observability/metrics"
)

const serviceName = "docproc-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outbox, closeDB, err := bootstrap.OpenOutbox(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	if counts, err := outbox.CountByDecision(ctx); err != nil {
		logger.Warn("outbox_count_failed", "error", err)
	} else {
		for decision, count := range counts {
			workerMetrics.SetOutboxRows(string(decision), count)
		}
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_error", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = queue.SubscribeDispatches(ctx, func(handlerCtx context.Context, dispatch domain.ERPDispatch) error {
		loadCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		start := time.Now()
		workerMetrics.StartLoad()
		workerMetrics.ObserveQueueLag(time.Since(dispatch.CreatedAt))
		err := outbox.Deliver(loadCtx, dispatch)
		workerMetrics.FinishLoad(string(dispatch.Decision), time.Since(start), err)
		if err == nil {
			logger.Info("erp_dispatch_loaded", "dispatch_id", dispatch.ID, "run_id", dispatch.RunID, "decision", string(dispatch.Decision))
		}
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
