// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/CanopyWatch/cmd/canopy/config"
	"github.com/AleutianAI/CanopyWatch/services/screening"
	"github.com/spf13/cobra"
)

// runServe loads configuration and runs the screening server until it
// stops. Blocking is intentional; the process lifecycle is the server
// lifecycle.
func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.Global

	slog.Info("Starting CanopyWatch",
		"port", cfg.Server.Port,
		"compute_endpoint", cfg.Compute.Endpoint,
		"credentials_dir", cfg.Credentials.Dir,
		"parallel", cfg.Processing.ParallelEnabled,
	)

	svc, err := screening.New(screening.Config{
		Port:              cfg.Server.Port,
		ComputeEndpoint:   cfg.Compute.Endpoint,
		CredentialsDir:    cfg.Credentials.Dir,
		StrictCredentials: cfg.Credentials.Strict,
		ParallelEnabled:   cfg.Processing.ParallelEnabled,
		MaxWorkers:        cfg.Processing.MaxWorkers,
		ComputeTimeout:    time.Duration(cfg.Compute.TimeoutSeconds) * time.Second,
		OTelEndpoint:      cfg.Observability.OTelEndpoint,
		EnableMetrics:     cfg.Observability.EnableMetrics,
		GinMode:           cfg.Server.GinMode,
	})
	if err != nil {
		return fmt.Errorf("failed to create the screening service: %w", err)
	}

	return svc.Run()
}
