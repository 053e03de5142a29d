package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"perfpulse/internal/config"
	"perfpulse/internal/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Serve(ctx, container.ServeOptions{API: true}); err != nil {
		c.Logger.Error("API server failed: %v", err)
		os.Exit(1)
	}
}
