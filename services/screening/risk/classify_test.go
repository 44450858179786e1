// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_NoLossIsLowRisk(t *testing.T) {
	stats := map[string]float64{"gfw_loss_combined": 0}

	v := Classify(stats, 100, "gfw_loss", Years)

	assert.Equal(t, RiskLow, v.Stat)
	assert.Equal(t, 0.0, v.AreaHectares)
	assert.Equal(t, 0.0, v.PercentOfArea)
	assert.Nil(t, v.PeakLossYear)
	assert.Equal(t, "GFW Forest Loss", v.Label)
}

func TestClassify_AnyLossIsHighRisk(t *testing.T) {
	// One full pixel of loss: 900 m^2 = 0.09 ha. Binary rule, no threshold.
	stats := map[string]float64{
		"gfw_loss_combined": 1.0,
		"gfw_loss_2022":     1.0,
	}

	v := Classify(stats, 0.9, "gfw_loss", Years)

	assert.Equal(t, RiskHigh, v.Stat)
	assert.Equal(t, 0.09, v.AreaHectares)
	assert.Equal(t, 10.0, v.PercentOfArea) // 0.09 of 0.9 ha
	require.NotNil(t, v.PeakLossYear)
	assert.Equal(t, 2022, *v.PeakLossYear)
}

func TestClassify_TinyLossStillHigh(t *testing.T) {
	// Rounds to 0.00 ha for presentation but the decision is made on the
	// unrounded value.
	stats := map[string]float64{"jrc_loss_combined": 0.00001}

	v := Classify(stats, 100, "jrc_loss", Years)

	assert.Equal(t, RiskHigh, v.Stat)
	assert.Equal(t, 0.0, v.AreaHectares)
}

func TestClassify_ZeroTotalAreaYieldsZeroPercent(t *testing.T) {
	stats := map[string]float64{"gfw_loss_combined": 1.0}

	v := Classify(stats, 0, "gfw_loss", Years)

	assert.Equal(t, RiskHigh, v.Stat)
	assert.Equal(t, 0.0, v.PercentOfArea)
}

func TestClassify_MissingBandsReadAsZero(t *testing.T) {
	v := Classify(map[string]float64{}, 100, "sbtn_loss", Years)

	assert.Equal(t, RiskLow, v.Stat)
	assert.Equal(t, 0.0, v.AreaHectares)
	assert.Equal(t, "SBTN Natural Lands Loss", v.Label)
}

func TestClassify_UnknownPrefixKeepsPrefixAsLabel(t *testing.T) {
	v := Classify(map[string]float64{}, 100, "mystery_loss", Years)
	assert.Equal(t, "mystery_loss", v.Label)
}

func TestPeakLossYear_MaxValueWins(t *testing.T) {
	stats := map[string]float64{
		"gfw_loss_combined": 1.0,
		"gfw_loss_2021":     0.2,
		"gfw_loss_2023":     0.5,
		"gfw_loss_2024":     0.1,
	}

	v := Classify(stats, 100, "gfw_loss", Years)

	require.NotNil(t, v.PeakLossYear)
	assert.Equal(t, 2023, *v.PeakLossYear)
}

func TestPeakLossYear_TieResolvesToEarliestYear(t *testing.T) {
	stats := map[string]float64{
		"gfw_loss_combined": 1.0,
		"gfw_loss_2022":     0.5,
		"gfw_loss_2024":     0.5,
	}

	v := Classify(stats, 100, "gfw_loss", Years)

	require.NotNil(t, v.PeakLossYear)
	assert.Equal(t, 2022, *v.PeakLossYear)
}

func TestPeakLossYear_NilWhenNoYearlySignal(t *testing.T) {
	// Combined positive but no yearly band: upstream inconsistency, the
	// peak year must not be fabricated.
	stats := map[string]float64{"gfw_loss_combined": 0.3}

	v := Classify(stats, 100, "gfw_loss", Years)

	assert.Equal(t, RiskHigh, v.Stat)
	assert.Nil(t, v.PeakLossYear)
}

func TestPeakLossYear_NegativeValuesIgnored(t *testing.T) {
	stats := map[string]float64{
		"gfw_loss_combined": 1.0,
		"gfw_loss_2021":     -0.5,
		"gfw_loss_2023":     0.2,
	}

	v := Classify(stats, 100, "gfw_loss", Years)

	require.NotNil(t, v.PeakLossYear)
	assert.Equal(t, 2023, *v.PeakLossYear)
}

func TestClassify_Deterministic(t *testing.T) {
	stats := map[string]float64{
		"gfw_loss_combined": 0.42,
		"gfw_loss_2021":     0.1,
		"gfw_loss_2022":     0.32,
	}

	first := Classify(stats, 50, "gfw_loss", Years)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(stats, 50, "gfw_loss", Years))
	}
}

func TestBandNames(t *testing.T) {
	names := BandNames()

	// 3 combined bands + 3 datasets x 4 years
	assert.Len(t, names, 15)
	assert.Contains(t, names, "gfw_loss_combined")
	assert.Contains(t, names, "jrc_loss_combined")
	assert.Contains(t, names, "sbtn_loss_combined")
	assert.Contains(t, names, "gfw_loss_2021")
	assert.Contains(t, names, "sbtn_loss_2024")
}

func TestAggregate_AllLowIsCompliant(t *testing.T) {
	low := DatasetVerdict{Stat: RiskLow}

	v := Aggregate(low, low, low)

	assert.Equal(t, RiskLow, v.OverallRisk)
	assert.Equal(t, StatusCompliant, v.ComplianceStatus)
	assert.NotNil(t, v.HighRiskDatasets)
	assert.Empty(t, v.HighRiskDatasets)
	assert.Equal(t, 0, v.TotalHighRiskIndicators)
}

func TestAggregate_AnyHighIsNonCompliant(t *testing.T) {
	low := DatasetVerdict{Stat: RiskLow}
	high := DatasetVerdict{Stat: RiskHigh}

	v := Aggregate(low, high, low)

	assert.Equal(t, RiskHigh, v.OverallRisk)
	assert.Equal(t, StatusNonCompliant, v.ComplianceStatus)
	assert.Equal(t, []string{"JRC Forest Loss"}, v.HighRiskDatasets)
	assert.Equal(t, 1, v.TotalHighRiskIndicators)
}

func TestAggregate_ReportingOrderIsFixed(t *testing.T) {
	high := DatasetVerdict{Stat: RiskHigh}

	v := Aggregate(high, high, high)

	assert.Equal(t, []string{
		"GFW Forest Loss",
		"JRC Forest Loss",
		"SBTN Natural Lands Loss",
	}, v.HighRiskDatasets)
	assert.Equal(t, 3, v.TotalHighRiskIndicators)
}
