// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command canopy runs the CanopyWatch EUDR compliance screening service.
//
// # Usage
//
//	# Start the HTTP server
//	canopy serve --config canopy.yaml
//
//	# Check the credential pool
//	canopy accounts --credentials-dir ./credentials
//
// # Environment Variables
//
//   - CANOPY_PORT: HTTP server port (default: 12240)
//   - ZONAL_COMPUTE_ENDPOINT: zonal-statistics compute service URL
//   - EUDR_CREDENTIALS_DIR: directory of eudr-<n>.json key files
//   - EUDR_STRICT_CREDENTIALS: fail startup on an empty credential pool
//   - ENABLE_PARALLEL_PROCESSING: gate parallel batch processing
//   - MAX_PARALLEL_WORKERS: parallel worker cap (default: 8)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector
//   - CANOPY_LOG_LEVEL: debug, info, warn, error (default: info)
//   - CANOPY_LOG_DIR: duplicate logs to a dated file in this directory
package main

import (
	"log"
	"os"

	"github.com/AleutianAI/CanopyWatch/pkg/logging"
)

func main() {
	// Setup structured logging
	logger, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("CANOPY_LOG_LEVEL")),
		Service: "canopy",
		LogDir:  os.Getenv("CANOPY_LOG_DIR"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()
	logger.SetDefault()

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
