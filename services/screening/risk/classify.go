// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package risk

import (
	"fmt"
	"math"
)

// Classify converts raw zonal statistics for one dataset into a verdict.
//
// # Description
//
// Reads the "<prefix>_combined" band from stats, converts the fractional
// pixel coverage to hectares (900 m² per pixel at 30 m resolution), and
// applies the binary rule: any loss at all is high risk.
//
// The peak-loss year is only determined for high-risk results. Among the
// yearly bands with a strictly positive value, the year with the maximum
// value wins; on equal values the earliest year wins. If the combined band
// is positive but no yearly band is (an upstream inconsistency), the peak
// year stays nil rather than being fabricated.
//
// Missing bands behave as 0.0 — absence of signal means no loss detected.
// All comparisons happen on unrounded values; rounding to 2 decimals is
// applied last, for presentation only.
//
// # Inputs
//
//   - stats: band name -> mean pixel fraction. Missing keys read as 0.
//   - totalAreaHa: total analyzed area in hectares. <= 0 yields 0 percent.
//   - prefix: dataset band prefix, e.g. "gfw_loss".
//   - years: analysis years, normally risk.Years.
//
// # Outputs
//
//   - DatasetVerdict: deterministic classification for the dataset.
func Classify(stats map[string]float64, totalAreaHa float64, prefix string, years []int) DatasetVerdict {
	combined := stats[combinedBand(prefix)]
	lossHa := combined * PixelAreaSqMeters / SqMetersPerHectare

	var percent float64
	if totalAreaHa > 0 {
		percent = lossHa / totalAreaHa * 100
	}

	verdict := DatasetVerdict{
		Stat:          RiskLow,
		AreaHectares:  round2(lossHa),
		PercentOfArea: round2(percent),
		Label:         labelFor(prefix),
	}
	if lossHa <= 0 {
		return verdict
	}

	verdict.Stat = RiskHigh
	verdict.PeakLossYear = peakLossYear(stats, prefix, years)
	return verdict
}

// peakLossYear picks the year with the largest positive yearly loss.
// Years are scanned in ascending order and only strictly greater values
// displace the current pick, so ties resolve to the earliest year.
func peakLossYear(stats map[string]float64, prefix string, years []int) *int {
	var (
		best     *int
		bestLoss float64
	)
	for _, year := range years {
		loss := stats[yearBand(prefix, year)] * PixelAreaSqMeters / SqMetersPerHectare
		if loss <= 0 {
			continue
		}
		if best == nil || loss > bestLoss {
			y := year
			best = &y
			bestLoss = loss
		}
	}
	return best
}

// labelFor resolves the display name for a band prefix. Unknown prefixes
// fall back to the prefix itself so a verdict is never unlabeled.
func labelFor(prefix string) string {
	for _, ds := range Datasets {
		if ds.Prefix == prefix {
			return ds.Label
		}
	}
	return prefix
}

func combinedBand(prefix string) string {
	return prefix + "_combined"
}

func yearBand(prefix string, year int) string {
	return fmt.Sprintf("%s_%d", prefix, year)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
