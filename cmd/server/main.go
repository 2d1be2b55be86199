package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sales-deck-generator/internal/client"
	"sales-deck-generator/internal/config"
	"sales-deck-generator/internal/handler"
	"sales-deck-generator/internal/logo"
	"sales-deck-generator/internal/progress"
	"sales-deck-generator/internal/service"
	"sales-deck-generator/internal/storage"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	deckClient := client.New(cfg.DeckAPIURL)
	sessions := service.NewSessionStore(deckClient, logo.NewEncoder(), cfg.SessionTTL)
	progressTracker := progress.NewTracker()

	var archiver handler.DeckArchiver
	if cfg.ArchiveEnabled() {
		storageService, err := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		archiver = storage.NewArchiver(storageService, cfg.ArchiveBucket)
		log.Printf("Archiving completed decks to bucket %q", cfg.ArchiveBucket)
	}

	salesDeckHandler := handler.NewSalesDeckHandler(sessions, progressTracker, deckClient, archiver, cfg.JWTSecret)
	r := handler.NewRouter(salesDeckHandler, cfg.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, sweepInterval, salesDeckHandler.Evict)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Sales deck form listening on :%s (generation service %s)", cfg.Port, cfg.DeckAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
