package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"learnhub-backend/internal/accounts"
	"learnhub-backend/internal/audit"
	"learnhub-backend/internal/auth"
	"learnhub-backend/internal/cache"
	"learnhub-backend/internal/handlers"
	"learnhub-backend/internal/ingest"
	mw "learnhub-backend/internal/middleware"
	"learnhub-backend/internal/natsbus"
	"learnhub-backend/internal/natscreds"
	"learnhub-backend/internal/notify"
	"learnhub-backend/internal/services"
	"learnhub-backend/internal/storage"
	"learnhub-backend/internal/workers"
)

func main() {
	tokens, err := auth.NewTokenManager(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to initialize session tokens: %v", err)
	}

	// Database connection (with retries)
	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("postgres", buildDSN())
		if err == nil {
			break
		}
		log.Printf("DB connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// NATS connection
	natsClient, err := natsbus.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	// Storage (probes schema capabilities)
	store, err := storage.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Rate limiter: Redis when configured, in-process otherwise
	var limiter mw.Limiter
	if os.Getenv("REDIS_URL") != "" {
		redisClient, err := cache.NewRedisClient()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		limiter = redisClient
	} else {
		log.Println("WARN REDIS_URL not set; rate limits are per-process and reset on restart")
		limiter = mw.NewMemoryLimiter()
	}

	// Per-user NATS credential issuer (optional)
	var credsIssuer *natscreds.Issuer
	if seed := os.Getenv("NATS_SIGNING_KEY_SEED"); seed != "" {
		credsIssuer, err = natscreds.NewIssuer(seed, os.Getenv("NATS_ACCOUNT_PUBLIC_KEY"))
		if err != nil {
			log.Fatalf("Failed to initialize NATS credential issuer: %v", err)
		}
	} else {
		log.Println("WARN NATS_SIGNING_KEY_SEED not set; live notification credentials disabled")
	}

	// Services
	recorder := audit.NewRecorder(store)
	notifier := notify.New(store, natsClient.NC())
	mailClient := services.NewMailClient()
	slackClient := services.NewSlackClient()
	accountsSvc := accounts.New(store, recorder, notifier, mailClient, slackClient)

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progressConsumer := ingest.NewProgressConsumer(natsClient.JS(), store, notifier)
	if err := progressConsumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start progress consumer: %v", err)
	}

	workers.StartInviteSweeper(ctx, store)

	// HTTP handlers
	h := handlers.New(store, tokens, accountsSvc, notifier, credsIssuer, limiter)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = progressConsumer.Stop()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Println("Server starting on :8080")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

func buildDSN() string {
	return "host=" + getEnv("DB_HOST", "localhost") +
		" user=" + getEnv("DB_USER", "learnhub_user") +
		" password=" + getEnv("DB_PASSWORD", "learnhub_pass") +
		" dbname=" + getEnv("DB_NAME", "learnhub") +
		" sslmode=disable"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
