// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package accounts manages the fixed pool of service-account credentials
// used to spread zonal-statistics traffic across several remote quotas.
//
// Credential material lives on disk as one JSON key file per slot, named
// eudr-0.json through eudr-15.json. Load validates only the minimal
// structural requirement (a client_email identity field) without opening a
// live session; session binding is the gateway's job and happens once per
// worker.
//
// The pool's only mutable state is the round-robin cursor, which advances
// atomically so concurrent workers never corrupt it. Handles themselves are
// read-only after Load and may be drawn by many workers over time.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

const (
	// AccountPrefix is the credential file naming prefix: eudr-<n>.json.
	AccountPrefix = "eudr"

	// MaxSlots is the number of provisioned credential slots.
	MaxSlots = 16
)

// ErrEmptyPool is returned by Next when no credentials were loaded.
// Callers are expected to fall back to the default-credential path.
var ErrEmptyPool = errors.New("credential pool is empty")

// Handle identifies one loaded credential. It carries no session state;
// binding a session from a handle is the gateway's responsibility.
type Handle struct {
	// Index is the slot number (0..MaxSlots-1).
	Index int

	// Name is the slot identifier, e.g. "eudr-3".
	Name string

	// KeyFile is the path to the JSON key file backing this slot.
	KeyFile string

	// Email is the client_email identity read from the key file.
	Email string
}

// Pool holds the ordered list of valid credential handles and a cyclic
// cursor. Safe for concurrent use.
type Pool struct {
	handles []Handle
	cursor  atomic.Uint64
}

// keyFileIdentity is the subset of a service-account key file we validate.
type keyFileIdentity struct {
	ClientEmail string `json:"client_email"`
}

// Load scans dir for credential key files and returns a pool of the usable
// slots, in slot order.
//
// Missing files are skipped silently (that slot simply isn't provisioned).
// Files that exist but are unreadable, malformed, or missing client_email
// are skipped with a warning; one bad key must not take down the pool. A
// missing directory yields an empty pool, which is a valid degraded state —
// the caller decides whether that is fatal (strict mode) at startup.
func Load(dir string) (*Pool, error) {
	if dir == "" {
		return nil, errors.New("credential directory not configured")
	}

	p := &Pool{}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("credential directory does not exist, pool will be empty", "dir", dir)
			return p, nil
		}
		return nil, fmt.Errorf("stat credential directory %s: %w", dir, err)
	}

	for i := 0; i < MaxSlots; i++ {
		handle, err := loadSlot(dir, i)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("skipping unusable credential slot",
					"slot", slotName(i), "error", err)
			}
			continue
		}
		p.handles = append(p.handles, handle)
	}

	slog.Info("credential pool loaded", "dir", dir, "accounts", len(p.handles))
	return p, nil
}

// loadSlot reads and minimally validates one slot's key file.
func loadSlot(dir string, index int) (Handle, error) {
	name := slotName(index)
	keyFile := filepath.Join(dir, name+".json")

	data, err := os.ReadFile(keyFile)
	if err != nil {
		return Handle{}, err
	}

	var identity keyFileIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return Handle{}, fmt.Errorf("parse key file: %w", err)
	}
	if identity.ClientEmail == "" {
		return Handle{}, errors.New("key file has no client_email")
	}

	return Handle{
		Index:   index,
		Name:    name,
		KeyFile: keyFile,
		Email:   identity.ClientEmail,
	}, nil
}

// Next returns the next handle in cyclic round-robin order.
//
// The cursor advance is atomic, so concurrent callers each observe a
// distinct cursor value; the handle itself carries no exclusivity guarantee
// and may be in use by another worker's session.
func (p *Pool) Next() (Handle, error) {
	if len(p.handles) == 0 {
		return Handle{}, ErrEmptyPool
	}
	n := p.cursor.Add(1) - 1
	return p.handles[n%uint64(len(p.handles))], nil
}

// Size returns the number of usable credentials in the pool.
func (p *Pool) Size() int {
	return len(p.handles)
}

// Handles returns a copy of the loaded handles in slot order.
func (p *Pool) Handles() []Handle {
	out := make([]Handle, len(p.handles))
	copy(out, p.handles)
	return out
}

func slotName(index int) string {
	return fmt.Sprintf("%s-%d", AccountPrefix, index)
}
