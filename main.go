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
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig, nil)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer.Logger.Info("API on :%s, report viewer on :%s", appConfig.Server.Port, appConfig.Server.UIPort)
	if err := appContainer.Serve(ctx, container.ServeOptions{API: true, UI: true}); err != nil {
		appContainer.Logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
