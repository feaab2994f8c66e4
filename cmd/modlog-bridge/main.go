package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/app"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, configPath, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start modlog-bridge: %v\n", err)
		os.Exit(1)
	}

	runErr := application.Start(ctx)
	if err := application.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "modlog-bridge exited: %v\n", runErr)
		os.Exit(1)
	}
}
