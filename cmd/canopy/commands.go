// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath     string
	credentialsDir string
	jsonOutput     bool

	rootCmd = &cobra.Command{
		Use:   "canopy",
		Short: "CanopyWatch EUDR forest-loss compliance screening service",
		Long: `Canopy runs the CanopyWatch compliance API: point and polygon
forest-loss screening against the GFW, JRC, and SBTN datasets.`,
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the compliance screening HTTP server",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	// --- Credential pool ---
	accountsCmd = &cobra.Command{
		Use:   "accounts",
		Short: "Report the state of every service-account credential slot",
		RunE:  runAccounts, // Defined in cmd_accounts.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "canopy.yaml",
		"path to the YAML config file")

	accountsCmd.Flags().StringVar(&credentialsDir, "credentials-dir", "",
		"credential directory (overrides the config file)")
	accountsCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"emit the slot report as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(accountsCmd)
}
