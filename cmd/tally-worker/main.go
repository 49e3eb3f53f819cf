package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/cli"
	applog "tally/internal/log"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting tally-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the stats worker")
		os.Exit(1)
	}

	// The worker shares the SQLite database with the server, the memory
	// backend has nothing to consume.
	cfg.DataBackend = string(backend.SQLite)
	res, err := backend.Open(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer res.Cleanup()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	statsWorker := worker.NewStatsWorker(res.Store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Recover aggregates missed while the worker was down, then consume.
	if err := statsWorker.RecalcAll(ctx); err != nil {
		logger.Error("Startup recalculation failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	// The consume loop redials the broker on connection loss, a broker
	// restart must not take the worker down with it.
	g.Go(func() error {
		return client.ConsumeChangesUntilDone(ctx, func(ev *amqp.ChangeEvent) error {
			return statsWorker.HandleChangeEvent(ctx, ev)
		})
	})
	// Periodic full recalculation covers events lost by the broker.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := statsWorker.RecalcAll(ctx); err != nil {
					logger.Error("Periodic recalculation failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
