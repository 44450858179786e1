// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package risk implements the deterministic EUDR risk classification rules.
//
// The package is intentionally pure: every function maps raw zonal
// statistics (fractional pixel coverage per band, as returned by the remote
// compute service) to a verdict without touching the network, the clock, or
// any shared state. Identical inputs always produce identical outputs.
//
// # Classification Rule
//
// The screening uses a binary rule with no tunable threshold: a dataset is
// "high" risk if and only if the converted loss area is strictly greater
// than zero hectares. The overall verdict is "high" if any of the three
// datasets (GFW, JRC, SBTN) is high.
package risk

// Zonal statistics are requested at a fixed 30 m ground resolution, so one
// pixel covers 900 square meters. Combined with the mean-fraction reducer
// this converts a band value directly into hectares of detected loss.
const (
	// ScaleMeters is the ground resolution requested from the compute service.
	ScaleMeters = 30

	// PixelAreaSqMeters is the footprint of one pixel at ScaleMeters.
	PixelAreaSqMeters = 900

	// SqMetersPerHectare converts square meters to hectares.
	SqMetersPerHectare = 10_000
)

// Risk levels for the binary classification.
const (
	RiskHigh = "high"
	RiskLow  = "low"
)

// Compliance statuses paired with the overall risk level.
const (
	StatusCompliant    = "COMPLIANT"
	StatusNonCompliant = "NON_COMPLIANT"
)

// Years is the fixed analysis window. Per-year loss bands exist for each of
// these years in every dataset.
var Years = []int{2021, 2022, 2023, 2024}

// Dataset identifies one of the three satellite-derived loss datasets.
type Dataset struct {
	// Prefix is the band-name prefix, e.g. "gfw_loss" for the bands
	// "gfw_loss_combined" and "gfw_loss_2021".
	Prefix string

	// Label is the human-readable dataset name used in the
	// high_risk_datasets list of the overall verdict.
	Label string
}

// Datasets lists the three screening datasets in their fixed reporting
// order. Aggregate preserves this order regardless of input ordering.
var Datasets = []Dataset{
	{Prefix: "gfw_loss", Label: "GFW Forest Loss"},
	{Prefix: "jrc_loss", Label: "JRC Forest Loss"},
	{Prefix: "sbtn_loss", Label: "SBTN Natural Lands Loss"},
}

// BandNames returns every band the compute service must evaluate: one
// combined band plus one band per analysis year, for each dataset.
func BandNames() []string {
	names := make([]string, 0, len(Datasets)*(1+len(Years)))
	for _, ds := range Datasets {
		names = append(names, combinedBand(ds.Prefix))
	}
	for _, ds := range Datasets {
		for _, year := range Years {
			names = append(names, yearBand(ds.Prefix, year))
		}
	}
	return names
}

// DatasetVerdict is the classification result for a single dataset.
type DatasetVerdict struct {
	// Stat is RiskHigh or RiskLow.
	Stat string

	// AreaHectares is the detected loss area, rounded to 2 decimals.
	AreaHectares float64

	// PercentOfArea is the loss area as a percentage of the analyzed
	// geometry's total area, rounded to 2 decimals.
	PercentOfArea float64

	// PeakLossYear is the year with the largest yearly loss, or nil when
	// no yearly band shows a strictly positive value. Ties resolve to the
	// earliest year.
	PeakLossYear *int

	// Label is the display name of the dataset, echoed for reporting.
	Label string
}

// ComplianceVerdict is the overall result across all three datasets.
type ComplianceVerdict struct {
	OverallRisk             string   `json:"overall_risk"`
	ComplianceStatus        string   `json:"compliance_status"`
	HighRiskDatasets        []string `json:"high_risk_datasets"`
	TotalHighRiskIndicators int      `json:"total_high_risk_indicators"`
}
