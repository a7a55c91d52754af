// Package main is the entry point for the lotledger outbox worker.
// It relays stock events from sys_outbox to RabbitMQ.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lotledger/internal/infrastructure/messaging"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/config"
	"lotledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting lotledger outbox worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	publisher, err := messaging.NewPublisher(messaging.Config{
		URL:      cfg.AMQP.URL,
		Exchange: cfg.AMQP.Exchange,
	})
	if err != nil {
		log.Fatalw("failed to connect to rabbitmq", "error", err)
	}
	defer publisher.Close()

	relay := postgres.NewOutboxRelay(pool.Unwrap(), cfg.Outbox.BatchSize, publisher)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, cfg.Outbox.PollInterval, log)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func runRelay(ctx context.Context, relay *postgres.OutboxRelay, pollInterval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if count > 0 {
				log.Debugw("relayed outbox batch", "count", count)
			}
		}
	}
}
