// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assemble

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/datatypes"
	"github.com/AleutianAI/CanopyWatch/services/screening/risk"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func highVerdict(label string, year int) risk.DatasetVerdict {
	return risk.DatasetVerdict{
		Stat:          risk.RiskHigh,
		AreaHectares:  1.25,
		PercentOfArea: 0.5,
		PeakLossYear:  &year,
		Label:         label,
	}
}

func successResult() datatypes.UnitResult {
	gfw := highVerdict("GFW Forest Loss", 2023)
	jrc := risk.DatasetVerdict{Stat: risk.RiskLow, Label: "JRC Forest Loss"}
	sbtn := risk.DatasetVerdict{Stat: risk.RiskLow, Label: "SBTN Natural Lands Loss"}
	return datatypes.UnitResult{
		ID:                "plot-7",
		Account:           "eudr-2",
		Geometry:          geojson.NewGeometry(orb.Point{11.5, 47.9}),
		Properties:        geojson.Properties{"region": "bavaria"},
		TotalAreaHectares: 7853.98,
		GFW:               gfw,
		JRC:               jrc,
		SBTN:              sbtn,
		Compliance:        risk.Aggregate(gfw, jrc, sbtn),
	}
}

func TestDatasetBlock_FlattensWithPrefix(t *testing.T) {
	block := DatasetBlock("gfw_loss", highVerdict("GFW Forest Loss", 2023))

	assert.Equal(t, risk.RiskHigh, block["gfw_loss_stat"])
	assert.Equal(t, 1.25, block["gfw_loss_area"])
	assert.Equal(t, 0.5, block["gfw_loss_percent"])
	assert.Equal(t, 2023, block["gfw_loss_year_compilation"])
	assert.Equal(t, "GFW Forest Loss (2021-2024)", block["dataset"])
}

func TestDatasetBlock_NilPeakYearStaysNull(t *testing.T) {
	block := DatasetBlock("jrc_loss", risk.DatasetVerdict{
		Stat:  risk.RiskLow,
		Label: "JRC Forest Loss",
	})

	v, present := block["jrc_loss_year_compilation"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestFeature_SuccessCarriesVerdictBlocks(t *testing.T) {
	f := Feature(successResult())

	assert.Equal(t, "plot-7", f.Properties["plot_id"])
	assert.Equal(t, "bavaria", f.Properties["region"]) // caller metadata echoed
	assert.Equal(t, 7853.98, f.Properties["total_area_hectares"])
	assert.Equal(t, "eudr-2", f.Properties["processed_by"])
	assert.NotNil(t, f.Properties["gfw_loss"])
	assert.NotNil(t, f.Properties["jrc_loss"])
	assert.NotNil(t, f.Properties["sbtn_loss"])
	assert.NotNil(t, f.Properties["overall_compliance"])
	assert.NotContains(t, f.Properties, "error")

	pt, ok := f.Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{11.5, 47.9}, pt)
}

func TestFeature_FailureCarriesErrorOnly(t *testing.T) {
	r := datatypes.UnitResult{
		ID:       "plot-9",
		Geometry: geojson.NewGeometry(orb.Point{1, 2}),
		Err:      "zonal evaluate: status 429",
	}

	f := Feature(r)

	assert.Equal(t, "plot-9", f.Properties["plot_id"])
	assert.Equal(t, "zonal evaluate: status 429", f.Properties["error"])
	assert.NotContains(t, f.Properties, "gfw_loss")
	assert.NotContains(t, f.Properties, "overall_compliance")
}

func TestFeature_ScreeningKeysOverwriteCallerKeys(t *testing.T) {
	r := successResult()
	r.Properties["plot_id"] = "caller-lied"
	r.Properties["processed_by"] = "nobody"

	f := Feature(r)

	assert.Equal(t, "plot-7", f.Properties["plot_id"])
	assert.Equal(t, "eudr-2", f.Properties["processed_by"])
}

func TestBatchCollection_EmbedsProcessingStats(t *testing.T) {
	batch := datatypes.BatchResult{
		TotalUnits:        2,
		Successful:        1,
		Failed:            1,
		ProcessingMode:    datatypes.ModeParallel,
		WorkersUsed:       2,
		AccountsAvailable: 4,
		Duration:          3 * time.Second,
		Results: []datatypes.UnitResult{
			successResult(),
			{ID: "plot-9", Geometry: geojson.NewGeometry(orb.Point{1, 2}), Err: "boom"},
		},
	}

	fc := BatchCollection(batch)

	assert.Len(t, fc.Features, 2)
	stats, ok := fc.ExtraMembers["processing_stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, stats["total_features"])
	assert.Equal(t, 1, stats["successful"])
	assert.Equal(t, 1, stats["failed"])
	assert.Equal(t, "parallel", stats["processing_mode"])
	assert.Equal(t, 2, stats["workers_used"])
	assert.Equal(t, 4, stats["accounts_available"])
}

func TestBatchCollection_SerializesWithStats(t *testing.T) {
	batch := datatypes.BatchResult{
		TotalUnits: 1,
		Successful: 1,
		Results:    []datatypes.UnitResult{successResult()},
	}

	data, err := json.Marshal(BatchCollection(batch))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Contains(t, doc, "processing_stats")
	assert.Contains(t, doc, "features")
}

func TestPointReport_Success(t *testing.T) {
	coords := datatypes.Coordinates{Latitude: 47.9, Longitude: 11.5}

	report := PointReport(successResult(), coords, 5)

	assert.Equal(t, "point_47.9_11.5", report["plot_id"])
	assert.Equal(t, 5.0, report["buffer_km"])
	assert.Equal(t, map[string]float64{"latitude": 47.9, "longitude": 11.5}, report["coordinates"])
	assert.Equal(t, 7853.98, report["total_area_hectares"])
	assert.Equal(t, "eudr-2", report["processed_by"])
	assert.NotContains(t, report, "error")
}

func TestPointReport_Failure(t *testing.T) {
	coords := datatypes.Coordinates{Latitude: 1, Longitude: 2}
	r := datatypes.UnitResult{ID: "point_1_2", Err: "session unavailable"}

	report := PointReport(r, coords, 5)

	assert.Equal(t, "session unavailable", report["error"])
	assert.NotContains(t, report, "total_area_hectares")
	assert.NotContains(t, report, "overall_compliance")
}
