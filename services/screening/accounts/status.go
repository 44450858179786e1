// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package accounts

import "os"

// SlotState describes the provisioning state of one credential slot.
type SlotState string

const (
	// SlotValid means the key file exists and carries an identity field.
	SlotValid SlotState = "valid"

	// SlotInvalid means the key file exists but is unusable (unreadable,
	// malformed JSON, or missing client_email).
	SlotInvalid SlotState = "invalid"

	// SlotMissing means no key file is provisioned for the slot.
	SlotMissing SlotState = "missing"
)

// SlotStatus is the per-slot result of a credential directory scan.
type SlotStatus struct {
	Index  int       `json:"index"`
	Name   string    `json:"name"`
	State  SlotState `json:"state"`
	Email  string    `json:"email,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Scan inspects every credential slot in dir and reports its state. Unlike
// Load it reports unusable slots instead of skipping them, which is what
// the accounts CLI command and the startup validation log need.
func Scan(dir string) []SlotStatus {
	statuses := make([]SlotStatus, 0, MaxSlots)
	for i := 0; i < MaxSlots; i++ {
		status := SlotStatus{Index: i, Name: slotName(i)}

		handle, err := loadSlot(dir, i)
		switch {
		case err == nil:
			status.State = SlotValid
			status.Email = handle.Email
		case os.IsNotExist(err):
			status.State = SlotMissing
		default:
			status.State = SlotInvalid
			status.Detail = err.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses
}
