// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/inertial_replay/internal/app"
	"github.com/relabs-tech/inertial_replay/internal/config"
)

func main() {
	configPath := flag.String("config", "./gyro_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gyro replay (console viewer)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	src, err := app.OpenSource(context.Background(), cfg, flag.Arg(0))
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	interval := time.Duration(cfg.PollInterval) * time.Millisecond
	if err := app.RunViewer(context.Background(), src, interval, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
