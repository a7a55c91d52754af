// Package main is the entry point for the lotledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lotledger/internal/domain/auth"
	v1 "lotledger/internal/infrastructure/http/v1"
	"lotledger/internal/infrastructure/http/v1/middleware"
	"lotledger/internal/infrastructure/numerator"
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

	ctx := context.Background()
	log.Info("starting lotledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.DB.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Numbering ---
	numeratorService := numerator.New(pool)

	// --- Outbox ---
	// Events are written to sys_outbox inside the business transaction;
	// the worker process relays them to the broker.
	eventPublisher := postgres.NewOutboxPublisher(txManager)

	// --- JWT ---
	// Without a secret the API runs unauthenticated and records the
	// system actor on documents. Intended for development only.
	var jwtValidator middleware.JWTValidator
	if cfg.JWT.Secret != "" {
		jwtCfg := auth.DefaultJWTConfig(cfg.JWT.Secret)
		jwtCfg.Issuer = cfg.JWT.Issuer
		jwtCfg.AccessTokenTTL = cfg.JWT.AccessTokenTTL
		jwtValidator = auth.NewJWTService(jwtCfg)
	} else {
		log.Warn("JWT_SECRET not set, authentication disabled")
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		TxManager:         txManager,
		Logger:            log,
		JWTValidator:      jwtValidator,
		Numerator:         numeratorService,
		EventPublisher:    eventPublisher,
		ReplenishmentRule: cfg.Replenishment.Rule,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-statsCtx.Done():
				return
			case <-ticker.C:
				postgres.LogPoolStats(statsCtx, pool.Unwrap())
			}
		}
	}()

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
