// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AleutianAI/CanopyWatch/cmd/canopy/config"
	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/spf13/cobra"
)

// runAccounts scans every credential slot and prints a provisioning
// report. Useful before deployment to confirm which of the 16 slots will
// actually join the pool.
func runAccounts(cmd *cobra.Command, args []string) error {
	dir := credentialsDir
	if dir == "" {
		if err := config.Load(configPath); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		dir = config.Global.Credentials.Dir
	}

	statuses := accounts.Scan(dir)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	var valid, invalid, missing int
	fmt.Printf("Credential slots in %s:\n", dir)
	for _, st := range statuses {
		switch st.State {
		case accounts.SlotValid:
			valid++
			fmt.Printf("  %-8s valid    %s\n", st.Name, st.Email)
		case accounts.SlotInvalid:
			invalid++
			fmt.Printf("  %-8s invalid  %s\n", st.Name, st.Detail)
		case accounts.SlotMissing:
			missing++
		}
	}
	fmt.Printf("\n%d valid, %d invalid, %d missing (of %d slots)\n",
		valid, invalid, missing, accounts.MaxSlots)

	if valid == 0 {
		return fmt.Errorf("no usable credentials in %s", dir)
	}
	return nil
}
