// Command birdetl runs the bird detection ETL: recording processing,
// consolidation, aggregation and the read-only presentation API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("birdetl failed", "error", err)
		stop()
		os.Exit(1)
	}
}
