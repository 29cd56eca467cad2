package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mindmesh/mindmesh-server/internal/llm"
	"github.com/mindmesh/mindmesh-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting MindMesh relay server...")

	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := server.NewConfigFromEnv()
	server.SetConfig(cfg)

	hub := server.NewHub(newCompleter(cfg.AI))
	go hub.Run()

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Port, mux)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
			log.Printf("Server crashed: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown: %v", err)
	}
}

// newCompleter picks the provider for the assistant hook. A configured base
// URL targets an Anthropic-compatible gateway; otherwise the default
// Anthropic endpoint is used.
func newCompleter(cfg server.AIConfig) llm.Provider {
	if cfg.BaseURL != "" {
		return llm.NewCompat("gateway", cfg.BaseURL, cfg.APIKey, cfg.Model)
	}
	return llm.NewAnthropic(cfg.APIKey, cfg.Model)
}
