package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/yanqian/fitbit-export/internal/interface/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(func(ctx context.Context, opts cli.Options) error {
		app, err := initializeApp(opts)
		if err != nil {
			return fmt.Errorf("failed to wire application: %w", err)
		}
		return app.Run(ctx)
	})
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("fitbit-export: %v", err)
	}
}
