// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/inertial_replay/internal/app"
	"github.com/relabs-tech/inertial_replay/internal/config"
)

func main() {
	configPath := flag.String("config", "./gyro_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gyro replay web server")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := app.OpenSource(ctx, cfg, flag.Arg(0))
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := app.RunWeb(ctx, src, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
