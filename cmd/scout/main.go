// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/app"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/config"
)

func main() {
	configPath := flag.String("config", "./scout_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting heat-scout robot")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunScout(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("fatal: %v", err)
	}
}
