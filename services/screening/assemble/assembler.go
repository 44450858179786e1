// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package assemble reshapes batch results into the caller-facing response
// documents: enriched GeoJSON FeatureCollections for batch processing and
// flat reports for single-point analysis.
//
// Geometries pass through byte-for-byte semantics preserved — never
// re-projected or simplified. Failed units keep their id and geometry and
// gain an error field; they are excluded from success-only figures but
// counted in the batch totals.
package assemble

import (
	"fmt"
	"math"

	"github.com/AleutianAI/CanopyWatch/services/screening/datatypes"
	"github.com/AleutianAI/CanopyWatch/services/screening/risk"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DatasetBlock flattens one dataset verdict using the dataset's band
// prefix, matching the classifier's naming: gfw_loss_stat, gfw_loss_area,
// gfw_loss_percent, gfw_loss_year_compilation.
func DatasetBlock(prefix string, v risk.DatasetVerdict) map[string]any {
	block := map[string]any{
		prefix + "_stat":    v.Stat,
		prefix + "_area":    v.AreaHectares,
		prefix + "_percent": v.PercentOfArea,
		"dataset":           fmt.Sprintf("%s (2021-2024)", v.Label),
	}
	if v.PeakLossYear != nil {
		block[prefix+"_year_compilation"] = *v.PeakLossYear
	} else {
		block[prefix+"_year_compilation"] = nil
	}
	return block
}

// Feature converts one unit result into an output GeoJSON feature.
//
// Successful units carry the three dataset blocks, the overall compliance
// verdict, the analyzed area, and the credential that handled the unit.
// Failed units carry an error field instead of verdicts. Caller-supplied
// properties are echoed unchanged in both cases; screening keys overwrite
// a colliding caller key rather than being dropped.
func Feature(r datatypes.UnitResult) *geojson.Feature {
	var feature *geojson.Feature
	if r.Geometry != nil {
		feature = geojson.NewFeature(r.Geometry.Geometry())
	} else {
		feature = geojson.NewFeature(orb.Point{})
	}

	for k, v := range r.Properties {
		feature.Properties[k] = v
	}
	feature.Properties["plot_id"] = r.ID

	if r.Failed() {
		feature.Properties["error"] = r.Err
		return feature
	}

	feature.Properties["total_area_hectares"] = r.TotalAreaHectares
	feature.Properties["gfw_loss"] = DatasetBlock("gfw_loss", r.GFW)
	feature.Properties["jrc_loss"] = DatasetBlock("jrc_loss", r.JRC)
	feature.Properties["sbtn_loss"] = DatasetBlock("sbtn_loss", r.SBTN)
	feature.Properties["overall_compliance"] = r.Compliance
	feature.Properties["processed_by"] = r.Account
	return feature
}

// BatchCollection assembles the batch response: a FeatureCollection whose
// extra processing_stats member carries the batch provenance.
func BatchCollection(batch datatypes.BatchResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range batch.Results {
		fc.Append(Feature(r))
	}
	fc.ExtraMembers = map[string]interface{}{
		"processing_stats": ProcessingStats(batch),
	}
	return fc
}

// ProcessingStats builds the provenance block reported with every batch.
func ProcessingStats(batch datatypes.BatchResult) map[string]any {
	return map[string]any{
		"total_features":     batch.TotalUnits,
		"successful":         batch.Successful,
		"failed":             batch.Failed,
		"processing_mode":    batch.ProcessingMode,
		"workers_used":       batch.WorkersUsed,
		"accounts_available": batch.AccountsAvailable,
	}
}

// PointReport assembles the single-point analysis response from the one
// unit result of a point+buffer dispatch.
func PointReport(r datatypes.UnitResult, coords datatypes.Coordinates, bufferKm float64) map[string]any {
	report := map[string]any{
		"plot_id": fmt.Sprintf("point_%g_%g", coords.Latitude, coords.Longitude),
		"coordinates": map[string]float64{
			"latitude":  coords.Latitude,
			"longitude": coords.Longitude,
		},
		"buffer_km": bufferKm,
	}

	if r.Failed() {
		report["error"] = r.Err
		return report
	}

	report["total_area_hectares"] = round2(r.TotalAreaHectares)
	report["gfw_loss"] = DatasetBlock("gfw_loss", r.GFW)
	report["jrc_loss"] = DatasetBlock("jrc_loss", r.JRC)
	report["sbtn_loss"] = DatasetBlock("sbtn_loss", r.SBTN)
	report["overall_compliance"] = r.Compliance
	report["processed_by"] = r.Account
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
