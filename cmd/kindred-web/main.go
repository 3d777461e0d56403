package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/kindred/internal/config"
	"github.com/scrypster/kindred/internal/llm"
	"github.com/scrypster/kindred/internal/presets"
	"github.com/scrypster/kindred/internal/server"
	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/internal/storage/memory"
	"github.com/scrypster/kindred/internal/storage/postgres"
	"github.com/scrypster/kindred/internal/storage/sqlite"
)

func main() {
	personasPath := flag.String("personas", "", "Path to persona presets file (overrides KINDRED_PERSONAS_PATH)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *personasPath != "" {
		cfg.Server.PersonasPath = *personasPath
	}

	// Initialize storage
	var (
		companions storage.CompanionStore
		users      storage.UserStore
	)
	switch cfg.Storage.Engine {
	case "sqlite":
		store, err := sqlite.New(cfg.Storage.DataPath + "/kindred.db")
		if err != nil {
			log.Fatalf("Failed to initialize sqlite storage: %v", err)
		}
		companions, users = store, store
	case "postgres":
		store, err := postgres.New(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to initialize postgres storage: %v", err)
		}
		companions, users = store, store
	case "memory", "":
		companions = memory.NewCompanionStore()
		users = memory.NewUserStore()
	default:
		log.Fatalf("Unknown storage engine %q", cfg.Storage.Engine)
	}
	defer companions.Close()

	// Sessions are process-local regardless of engine
	sessions := memory.NewSessionStore()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed persona presets if configured
	if cfg.Server.PersonasPath != "" {
		personas, err := presets.Load(cfg.Server.PersonasPath)
		if err != nil {
			log.Fatalf("Failed to load personas: %v", err)
		}
		seeded, err := presets.Seed(ctx, companions, personas)
		if err != nil {
			log.Fatalf("Failed to seed personas: %v", err)
		}
		if seeded > 0 {
			log.Printf("Seeded %d persona preset(s)", seeded)
		}
	}

	ollama := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.LLM.OllamaURL,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err := ollama.HealthCheck(ctx); err != nil {
		log.Printf("WARNING: Ollama unreachable at %s, chat will use fallback replies: %v", cfg.LLM.OllamaURL, err)
	}

	addr, err := server.Start(ctx, cfg, server.Deps{
		Companions: companions,
		Users:      users,
		Sessions:   sessions,
		Generator:  ollama,
		Health:     ollama,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Kindred API running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
