package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/omniwallet/walletsync/app/sync"
)

func main() {
	// Optional; real deployments configure through the environment.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := sync.Initialize(ctx)

	if len(os.Args) > 1 && os.Args[1] == "once" {
		if err := app.RunOnce(ctx); err != nil {
			os.Exit(1)
		}
		return
	}

	app.Start(ctx)
}
