package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"sales-deck-generator/internal/client"
	"sales-deck-generator/internal/config"
	"sales-deck-generator/internal/logo"
	"sales-deck-generator/internal/service"
	"sales-deck-generator/internal/storage"
	"sales-deck-generator/internal/terminal"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file (default: ./.env when present)")
	from := flag.String("from", "", "YAML file with answers to use as prompt defaults")
	health := flag.Bool("health", false, "check that the deck generation service is up and exit")
	flag.Parse()

	log.SetFlags(0)

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deckClient := client.New(cfg.DeckAPIURL)

	if *health {
		status, err := deckClient.CheckLiveness(ctx)
		if err != nil {
			log.Fatalf("Deck generation service at %s is unavailable: %v", cfg.DeckAPIURL, err)
		}
		fmt.Printf("%s (%s)\n", status.Status, status.Timestamp)
		return
	}

	var prefill terminal.Prefill
	if *from != "" {
		prefill, err = terminal.LoadPrefill(*from)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	session := service.NewSession(uuid.New().String(), "cli", deckClient, logo.NewEncoder())
	view, err := terminal.NewForm(terminal.NewSurveyDriver(), session).Run(ctx, prefill)
	switch {
	case errors.Is(err, terminal.ErrAborted), errors.Is(err, terminal.ErrGaveUp):
		os.Exit(1)
	case err != nil:
		log.Fatalf("Failed to generate deck: %v", err)
	}

	if !cfg.ArchiveEnabled() {
		return
	}
	storageService, err := storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	archived, err := storage.NewArchiver(storageService, cfg.ArchiveBucket).Archive(ctx, view.Result, view.DownloadURL)
	if err != nil {
		log.Fatalf("Failed to archive deck: %v", err)
	}
	fmt.Println("Archived copy:", archived)
}
