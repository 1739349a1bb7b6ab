package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexivanou/foodmap-api/internal/client"
	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/discovery"
	"github.com/alexivanou/foodmap-api/internal/gateway/location"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(dependencies{
		config: cfg.Discovery,
		newFinder: func(baseURL string, opts ...client.Option) discovery.Finder {
			return client.New(baseURL, opts...)
		},
		geocoder: location.NewClient(),
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
