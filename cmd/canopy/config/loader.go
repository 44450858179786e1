// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global CanopyConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable.
//
// The file is optional: a missing file means pure defaults plus env
// overrides, which covers containerized deployments that configure
// everything through the environment.
func Load(path string) error {
	var err error
	once.Do(func() {
		err = loadInternal(path)
	})
	return err
}

func loadInternal(path string) error {
	Global = DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return fmt.Errorf("failed to read the config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &Global); err != nil {
			return fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&Global)
	return nil
}

// applyEnvOverrides lets the container environment win over the file.
func applyEnvOverrides(cfg *CanopyConfig) {
	if v := os.Getenv("CANOPY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.GinMode = v
	}
	if v := os.Getenv("ZONAL_COMPUTE_ENDPOINT"); v != "" {
		cfg.Compute.Endpoint = v
	}
	if v := os.Getenv("EUDR_CREDENTIALS_DIR"); v != "" {
		cfg.Credentials.Dir = v
	}
	if v := os.Getenv("EUDR_STRICT_CREDENTIALS"); v != "" {
		cfg.Credentials.Strict = v == "true" || v == "1"
	}
	if v := os.Getenv("ENABLE_PARALLEL_PROCESSING"); v != "" {
		cfg.Processing.ParallelEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MAX_PARALLEL_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Processing.MaxWorkers = workers
		}
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTelEndpoint = v
	}
}
