// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/app"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/config"
)

func main() {
	configPath := flag.String("config", "./scout_config.txt", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
