// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/blob"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

const uploadsPrefix = "/uploads"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// ── 1. Stores ────────────────────────────────────────────────────────
	var (
		accounts service.AccountStore
		events   service.EventStore
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memstore.New()
		accounts, events = mem, mem
		log.Println("✓ Using in-memory store")
	default:
		if cfg.DBMigrate {
			if err := database.RunMigrations(cfg.DSN()); err != nil {
				log.Fatalf("database: %v", err)
			}
		}
		pool, err := database.NewPool(ctx, cfg.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		accounts = repository.NewAccountRepository(pool)
		events = repository.NewEventRepository(pool)
		log.Println("✓ Connected to PostgreSQL")
	}

	// ── 2. Collaborators ─────────────────────────────────────────────────
	issuer := auth.NewIssuer(cfg.JWTSecret)
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatal(err)
	}

	local, err := blob.NewLocalStore(cfg.UploadDir, uploadsPrefix)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}
	images := blob.NewImageStore(local, cfg.ImageMaxW, cfg.ImageMaxH)

	var pub service.Publisher = notify.Discard{}
	if cfg.AMQPURL != "" {
		p, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("notifications: %v", err)
		}
		defer p.Close()
		pub = p
		log.Printf("✓ Publishing notifications to exchange %q", cfg.AMQPExchange)
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	ttl := service.TokenTTLs{Default: cfg.TokenTTL, OrganizerLogin: cfg.OrganizerLoginTTL}
	accountSvc := service.NewAccountService(accounts, events, issuer, hasher, images, ttl, logger)
	eventSvc := service.NewEventService(events, accounts, issuer, images, pub, logger)
	accountHandler := handler.NewAccountHandler(accountSvc, logger, cfg.UploadMaxBytes)
	eventHandler := handler.NewEventHandler(eventSvc, logger, cfg.UploadMaxBytes)

	// ── 4. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(logger))  // structured access log
	r.Use(handler.CORS)            // permissive CORS for the SPA

	handler.Mount(r, eventHandler, accountHandler)

	// Uploaded logos and banners.
	r.Handle(uploadsPrefix+"/*", http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(cfg.UploadDir))))

	// Static front end.
	r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("✓ Server listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}
