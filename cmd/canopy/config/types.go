// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

type CanopyConfig struct {
	// Server: HTTP listener settings
	Server ServerConfig `yaml:"server"`

	// Compute: the remote zonal-statistics service
	Compute ComputeConfig `yaml:"compute"`

	// Credentials: the service-account key pool
	Credentials CredentialsConfig `yaml:"credentials"`

	// Processing: parallel dispatch settings
	Processing ProcessingConfig `yaml:"processing"`

	// Observability: tracing and metrics
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Port    int    `yaml:"port"`     // e.g. 12240
	GinMode string `yaml:"gin_mode"` // debug, release, test
}

type ComputeConfig struct {
	Endpoint       string `yaml:"endpoint"`        // e.g. http://zonal-compute:8085
	TimeoutSeconds int    `yaml:"timeout_seconds"` // e.g. 120
}

type CredentialsConfig struct {
	Dir    string `yaml:"dir"`    // directory of eudr-<n>.json key files
	Strict bool   `yaml:"strict"` // fail startup when no valid key is found
}

type ProcessingConfig struct {
	ParallelEnabled bool `yaml:"parallel_enabled"`
	MaxWorkers      int  `yaml:"max_workers"` // cap, effective is min(accounts, cap)
}

type ObservabilityConfig struct {
	OTelEndpoint  string `yaml:"otel_endpoint"`
	EnableMetrics bool   `yaml:"enable_metrics"`
}

func DefaultConfig() CanopyConfig {
	return CanopyConfig{
		Server: ServerConfig{
			Port:    12240,
			GinMode: "release",
		},
		Compute: ComputeConfig{
			Endpoint:       "http://zonal-compute:8085",
			TimeoutSeconds: 120,
		},
		Credentials: CredentialsConfig{
			Dir:    "./credentials",
			Strict: false,
		},
		Processing: ProcessingConfig{
			ParallelEnabled: true,
			MaxWorkers:      8,
		},
		Observability: ObservabilityConfig{
			OTelEndpoint:  "canopy-otel-collector:4317",
			EnableMetrics: true,
		},
	}
}
