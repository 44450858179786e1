// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package risk

// Aggregate combines the three dataset verdicts into the overall compliance
// verdict.
//
// The high-risk dataset names are collected in the fixed reporting order
// (GFW, JRC, SBTN) independent of argument evaluation details, and the
// overall risk is high exactly when that list is non-empty. The list is
// never nil so it serializes as [] rather than null.
func Aggregate(gfw, jrc, sbtn DatasetVerdict) ComplianceVerdict {
	byPrefix := map[string]DatasetVerdict{
		"gfw_loss":  gfw,
		"jrc_loss":  jrc,
		"sbtn_loss": sbtn,
	}

	highRisk := make([]string, 0, len(Datasets))
	for _, ds := range Datasets {
		if byPrefix[ds.Prefix].Stat == RiskHigh {
			highRisk = append(highRisk, ds.Label)
		}
	}

	verdict := ComplianceVerdict{
		OverallRisk:             RiskLow,
		ComplianceStatus:        StatusCompliant,
		HighRiskDatasets:        highRisk,
		TotalHighRiskIndicators: len(highRisk),
	}
	if len(highRisk) > 0 {
		verdict.OverallRisk = RiskHigh
		verdict.ComplianceStatus = StatusNonCompliant
	}
	return verdict
}
