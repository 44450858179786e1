// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the shared request, unit, and result types for
// the screening service.
package datatypes

import (
	"math"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/risk"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Processing modes reported in batch provenance.
const (
	ModeParallel   = "parallel"
	ModeSequential = "sequential"
)

// AnalysisUnit is one geometry to score. Units are constructed once per
// incoming feature, treated as immutable, consumed exactly once by the
// dispatcher, and discarded after result assembly.
type AnalysisUnit struct {
	// ID is the caller-supplied plot identifier, or a generated one.
	// Opaque; uniqueness is not assumed but every result echoes it so
	// callers can correlate completion-ordered output.
	ID string

	// Geometry is the GeoJSON geometry to analyze, passed through to the
	// output unchanged (never re-projected or simplified).
	Geometry *geojson.Geometry

	// Properties is caller metadata echoed back unchanged.
	Properties geojson.Properties

	// BufferKm is the buffer radius for point units; 0 for polygons.
	BufferKm float64
}

// TotalAreaHectares computes the analyzed area of the unit.
//
// Polygon areas are computed geodesically on the WGS84 ellipsoid. Point
// units are analyzed over a circular buffer, so their area is πr². A nil
// or unsupported geometry yields 0; the classifier treats 0 total area as
// "percentages undefined" rather than an error.
func (u AnalysisUnit) TotalAreaHectares() float64 {
	if u.Geometry == nil {
		return 0
	}
	switch g := u.Geometry.Geometry().(type) {
	case orb.Point:
		radiusM := u.BufferKm * 1000
		return math.Pi * radiusM * radiusM / risk.SqMetersPerHectare
	case orb.Polygon, orb.MultiPolygon:
		return math.Abs(geo.Area(g)) / risk.SqMetersPerHectare
	default:
		return 0
	}
}

// UnitResult is the outcome of processing one AnalysisUnit. Exactly one of
// the verdict fields or Err is meaningful: failed units carry Err and
// zero-valued verdicts.
type UnitResult struct {
	ID                string
	Account           string
	Geometry          *geojson.Geometry
	Properties        geojson.Properties
	TotalAreaHectares float64

	GFW        risk.DatasetVerdict
	JRC        risk.DatasetVerdict
	SBTN       risk.DatasetVerdict
	Compliance risk.ComplianceVerdict

	// Err is the per-unit failure message; empty for successful units.
	Err string
}

// Failed reports whether the unit ended in a failure record.
func (r UnitResult) Failed() bool {
	return r.Err != ""
}

// BatchResult aggregates every unit outcome plus batch provenance.
//
// Invariants: Successful+Failed == TotalUnits, and every submitted unit's
// ID appears exactly once in Results. In parallel mode Results is in
// completion order; sequential mode preserves input order.
type BatchResult struct {
	TotalUnits        int
	Successful        int
	Failed            int
	ProcessingMode    string
	WorkersUsed       int
	AccountsAvailable int
	Duration          time.Duration
	Results           []UnitResult
}
