package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/cancellation"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/config"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/httpserver"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/membership"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/migrations"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/shortcode"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/store"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/stripe"
)

func main() {
	// Best-effort: load environment variables from .env-style files in local
	// development. These calls are safe to ignore in production environments.
	_ = godotenv.Load(
		"../.env",
		".env",
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("db: %s", cfg.DatabaseTarget())
	configureDB(db, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	if err := migrations.UpWithRepair(db); err != nil {
		log.Fatalf("failed to apply database migrations: %v", err)
	}

	st, err := store.New(db)
	if err != nil {
		log.Fatalf("failed to create store: %v", err)
	}

	paymentClients := func(secretKey string) cancellation.PaymentClient {
		return stripe.NewClient(secretKey, stripe.WithBaseURL(cfg.StripeAPIBase))
	}

	shortcodes := shortcode.NewRegistry()
	cancellation.NewHandler(
		st,
		membership.NewService(st),
		paymentClients,
		cancellation.WithDeactivationFallback(cfg.DeactivateWithoutFreeTier),
	).Register(shortcodes)

	srv := httpserver.New(cfg, shortcodes, st)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("backend starting on %s", cfg.ServerAddress)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server exited with error: %v", err)
		os.Exit(1)
	}
}

func configureDB(db *sql.DB, cfg config.Config) {
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
}
