package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/app"
)

func main() {
	listen := flag.String("listen", ":7310", "TCP address to serve the planner link on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunMockPlanner(ctx, *listen); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("fatal: %v", err)
	}
}
