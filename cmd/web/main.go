package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/config"
	"github.com/domicilios-tipovia/internal/logging"
	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/web"
)

func main() {
	// Load environment configuration
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg := config.Load()
	if err := cfg.ValidateLog(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.ValidateWeb(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	fmt.Println("=== Street Type Preview API ===")
	fmt.Printf("Server: http://%s\n", cfg.Web.Addr)
	fmt.Printf("API key required: %v\n", cfg.Web.APIKey != "")
	fmt.Printf("Max pairs per request: %d\n\n", cfg.Web.MaxBatch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(cfg.Web, normalize.DefaultRules(), logger)
	if err := server.Run(ctx); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
