package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kartixk/sweet-shop-management-system/internal/cart"
	"github.com/kartixk/sweet-shop-management-system/internal/checkout"
	"github.com/kartixk/sweet-shop-management-system/internal/config"
	"github.com/kartixk/sweet-shop-management-system/internal/db"
	"github.com/kartixk/sweet-shop-management-system/internal/events"
	httpapi "github.com/kartixk/sweet-shop-management-system/internal/http"
	"github.com/kartixk/sweet-shop-management-system/internal/inventory"
	"github.com/kartixk/sweet-shop-management-system/internal/sales"
	"github.com/kartixk/sweet-shop-management-system/internal/sequence"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	sqlDB, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	defer sqlDB.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	invRepo := inventory.NewPostgresRepository(pool)
	cartRepo := cart.NewRepository(sqlDB)
	cartStore := cart.NewStore(cartRepo, invRepo)
	salesRepo := sales.NewRepository(sqlDB)

	// --- AMQP (optional) ---
	var publisher checkout.EventPublisher
	if cfg.EventsEnabled {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			logger.Fatalf("rabbitmq connect: %v", err)
		}
		defer conn.Close()

		seqRepo := sequence.NewRepository(pool)
		pub, err := events.NewPublisher(conn, seqRepo, "sweet-shop")
		if err != nil {
			logger.Fatalf("events publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	engine := checkout.NewEngine(invRepo, cartStore, salesRepo, publisher, logger)

	// --- HTTP ---
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		logger.Fatalf("load timezone %q: %v", cfg.ReportTimezone, err)
	}

	router := httpapi.NewRouter(
		httpapi.NewInventoryHandler(invRepo),
		httpapi.NewCartHandler(cartStore, engine),
		httpapi.NewReportHandler(salesRepo, loc),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	logger.Printf("shutdown complete")
}
