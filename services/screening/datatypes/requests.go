// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

// API limits, matching the provisioned service configuration.
const (
	DefaultBufferKm = 5.0
	MaxBufferKm     = 50.0
	MaxUploadBytes  = 50 << 20 // 50 MB

	APIVersion = "2.1.0"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %g (must be -90..90)", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %g (must be -180..180)", c.Longitude)
	}
	return nil
}

// ComplianceRequest is the body of POST /v1/eudr-compliance: a point plus
// a circular buffer to screen.
type ComplianceRequest struct {
	Coordinates Coordinates `json:"coordinates"`
	BufferKm    float64     `json:"buffer_km" binding:"omitempty,buffer_km"`
}

// Validate rejects out-of-range coordinates and buffers, and applies the
// default buffer when none was supplied. Validation failures surface to
// the caller before any dispatch work starts.
func (r *ComplianceRequest) Validate() error {
	if err := r.Coordinates.Validate(); err != nil {
		return err
	}
	if r.BufferKm == 0 {
		r.BufferKm = DefaultBufferKm
	}
	if r.BufferKm < 0 || r.BufferKm > MaxBufferKm {
		return fmt.Errorf("invalid buffer_km: %g (must be 0..%g)", r.BufferKm, MaxBufferKm)
	}
	return nil
}

// GeoJSONRequest is the body of POST /v1/process-geojson. The geojson
// document is kept raw here and parsed by ParseFeatureCollection so shape
// errors produce a caller-facing error rather than a bind failure.
type GeoJSONRequest struct {
	GeoJSON        json.RawMessage `json:"geojson" binding:"required"`
	AnalysisParams map[string]any  `json:"analysis_params,omitempty"`
}

// ParseFeatureCollection parses a GeoJSON document that may be either a
// FeatureCollection or a single Feature (wrapped into a collection of one).
// Any other document shape is a validation error.
func ParseFeatureCollection(data []byte) (*geojson.FeatureCollection, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch envelope.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("invalid FeatureCollection: %w", err)
		}
		return fc, nil
	case "Feature":
		feature, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("invalid Feature: %w", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(feature)
		return fc, nil
	case "":
		return nil, errors.New("invalid GeoJSON: missing 'type' field")
	default:
		return nil, fmt.Errorf("GeoJSON must be FeatureCollection or Feature, got %q", envelope.Type)
	}
}

// UnitsFromFeatureCollection converts parsed features into analysis units.
//
// A feature's plot_id property becomes the unit ID; features without one
// get a generated UUID so every result row remains correlatable. Features
// with no geometry are rejected up front — structurally invalid input must
// fail before any dispatch work is performed.
func UnitsFromFeatureCollection(fc *geojson.FeatureCollection) ([]AnalysisUnit, error) {
	if len(fc.Features) == 0 {
		return nil, errors.New("FeatureCollection has no features")
	}

	units := make([]AnalysisUnit, 0, len(fc.Features))
	for i, feature := range fc.Features {
		if feature.Geometry == nil {
			return nil, fmt.Errorf("feature %d has no geometry", i)
		}

		id := ""
		if v, ok := feature.Properties["plot_id"].(string); ok && v != "" {
			id = v
		} else {
			id = uuid.NewString()
		}

		units = append(units, AnalysisUnit{
			ID:         id,
			Geometry:   geojson.NewGeometry(feature.Geometry),
			Properties: feature.Properties,
		})
	}
	return units, nil
}
