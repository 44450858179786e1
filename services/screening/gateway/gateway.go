// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gateway abstracts the remote zonal-statistics compute service.
//
// The remote service performs the heavy geospatial work (raster masking and
// area reduction over the satellite loss datasets); this package's job is
// only to hold an authenticated session per credential and issue one
// blocking evaluate call per analysis unit.
//
// # Session Model
//
// Binding a session performs the expensive authentication handshake
// (service-account JWT exchange) and must happen at most once per worker.
// A bound session is privately owned by the worker that bound it and is
// never handed off between goroutines; many sessions bound from different
// credentials run concurrently.
//
// # Failure Semantics
//
// Evaluate never returns a partial map: on any remote failure it returns a
// fully zero-filled map for the requested bands together with the error.
// Zero-defaulting keeps a single bad unit from poisoning a batch, while the
// returned error lets the dispatcher record the unit as errored instead of
// silently reporting "no loss". This conflation of "no data" with "error"
// in the stats themselves is a deliberate availability-over-precision
// approximation; the per-unit error flag is how consumers tell the two
// apart.
package gateway

import (
	"context"

	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/paulmach/orb/geojson"
)

// Binder creates authenticated sessions from pool credentials.
type Binder interface {
	// Bind opens a session authorized by the given credential handle.
	// Expensive; call once per worker and reuse the session.
	Bind(ctx context.Context, handle accounts.Handle) (Session, error)

	// BindDefault opens a session on the implicit default-credential path,
	// used when the pool is empty.
	BindDefault(ctx context.Context) (Session, error)
}

// Session issues blocking zonal-statistics calls under one credential.
//
// Implementations are NOT required to be safe for concurrent use; a
// session belongs to the single worker that bound it.
type Session interface {
	// Evaluate requests the mean pixel fraction per band over the geometry
	// at the configured ground resolution. The returned map always has an
	// entry for every requested band; null or missing remote values read
	// as 0.0. On failure the map is fully zero-filled and the error is
	// non-nil.
	Evaluate(ctx context.Context, geom *geojson.Geometry, bands []string) (map[string]float64, error)

	// Account returns the credential identifier the session is bound to,
	// for provenance reporting ("default" for the implicit path).
	Account() string
}

// ZeroStats returns a map with every band set to 0.0. Both the gateway
// failure path and tests use it as the no-signal baseline.
func ZeroStats(bands []string) map[string]float64 {
	stats := make(map[string]float64, len(bands))
	for _, band := range bands {
		stats[band] = 0
	}
	return stats
}
